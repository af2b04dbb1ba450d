package rest

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	app "inpainter/internal/application"
	"inpainter/internal/domain/entity"
	"inpainter/internal/infrastructure/imageio"
)

// ErrorResponse тело ответа с ошибкой.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type InpaintHandler struct {
	svc    *app.InpaintService
	logger *zap.Logger
}

func NewInpaintHandler(svc *app.InpaintService, logger *zap.Logger) *InpaintHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InpaintHandler{svc: svc, logger: logger}
}

// Inpaint принимает multipart-форму с полями image и mask и возвращает
// закрашенное изображение. Поле format (png|jpeg) задаёт формат ответа,
// по умолчанию он выбирается по имени исходного файла.
func (h *InpaintHandler) Inpaint(c *gin.Context) {
	imageFile, err := c.FormFile("image")
	if err != nil {
		h.fail(c, http.StatusBadRequest, "image file is required", err)
		return
	}
	maskFile, err := c.FormFile("mask")
	if err != nil {
		h.fail(c, http.StatusBadRequest, "mask file is required", err)
		return
	}

	format := strings.ToLower(c.PostForm("format"))
	switch format {
	case "":
		format = imageio.FormatFor(imageFile.Filename)
	case "jpg", imageio.FormatJPEG:
		format = imageio.FormatJPEG
	case imageio.FormatPNG:
	default:
		h.fail(c, http.StatusBadRequest, "format must be png or jpeg", nil)
		return
	}

	img, err := decodeImage(imageFile)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "failed to decode image", err)
		return
	}
	maskImg, err := decodeImage(maskFile)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "failed to decode mask", err)
		return
	}
	mask := imageio.MaskFromImage(maskImg)

	res, err := h.svc.Process(c.Request.Context(), img, mask, nil)
	if err != nil {
		h.fail(c, statusFor(err), "inpainting failed", err)
		return
	}

	data, err := imageio.EncodeBytes(res.Image, format)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to encode result", err)
		return
	}

	c.Header("X-Inpaint-Backend", h.svc.Backend())
	c.Header("X-Inpaint-Cached", strconv.FormatBool(res.Cached))
	c.Header("X-Inpaint-Cost", res.Cost.String())
	c.Data(http.StatusOK, "image/"+format, data)
}

func (h *InpaintHandler) fail(c *gin.Context, status int, message string, err error) {
	resp := ErrorResponse{Success: false, Message: message}
	if err != nil {
		resp.Error = err.Error()
		if status >= http.StatusInternalServerError {
			h.logger.Error(message, zap.Error(err))
		}
	}
	c.JSON(status, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrEmptyMask), errors.Is(err, entity.ErrSizeMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, app.ErrQueueTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeImage(fh *multipart.FileHeader) (*entity.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := imageio.Decode(f)
	return img, err
}
