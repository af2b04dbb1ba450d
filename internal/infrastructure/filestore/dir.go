package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"inpainter/internal/domain/entity"
	"inpainter/internal/domain/port"
	"inpainter/internal/infrastructure/imageio"
)

// DirSource читает изображения из каталога.
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// List возвращает имена изображений каталога в алфавитном порядке.
func (s *DirSource) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !imageio.IsImageName(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Load декодирует изображение по имени.
func (s *DirSource) Load(ctx context.Context, name string) (*entity.Image, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := imageio.Decode(f)
	return img, err
}

// DirSink пишет результаты в каталог. Имя результата совпадает с исходным,
// кроме форматов без кодировщика (они сохраняются в PNG).
type DirSink struct {
	dir string
}

// NewDirSink создаёт каталог при необходимости.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DirSink{dir: dir}, nil
}

func (s *DirSink) Exists(ctx context.Context, name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

// Save кодирует результат во временный файл и переименовывает его, чтобы
// при ошибке не оставить недописанный результат.
func (s *DirSink) Save(ctx context.Context, name string, img *entity.Image) error {
	path := s.path(name)
	tmp, err := os.CreateTemp(s.dir, ".inpaint-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := imageio.Encode(tmp, img, imageio.FormatFor(path)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *DirSink) path(name string) string {
	return filepath.Join(s.dir, imageio.OutputName(name))
}

var (
	_ port.ImageSource = (*DirSource)(nil)
	_ port.ImageSink   = (*DirSink)(nil)
)
