package app

import (
	"context"
	"errors"
	"sort"
	"sync"

	"inpainter/internal/domain/entity"
	"inpainter/internal/inpaint"
)

// fakeEngine закрашивает маску постоянным цветом и считает вызовы.
type fakeEngine struct {
	mu       sync.Mutex
	calls    int
	started  chan struct{}
	release  chan struct{}
	fail     func(img *entity.Image) error
	hook     func()
	settings string
}

func (e *fakeEngine) Inpaint(ctx context.Context, img *entity.Image, mask *entity.Mask, progress inpaint.ProgressFunc) (*entity.Image, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.started != nil {
		e.started <- struct{}{}
	}
	if e.release != nil {
		<-e.release
	}
	if e.hook != nil {
		e.hook()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.fail != nil {
		if err := e.fail(img); err != nil {
			return nil, err
		}
	}

	out := img.Clone()
	for i, v := range mask.Pix {
		if v > entity.MaskThreshold {
			copy(out.Pix[i*4:i*4+4], []uint8{1, 2, 3, 255})
		}
	}
	if progress != nil {
		progress(1)
	}
	return out, nil
}

func (e *fakeEngine) Settings() string {
	if e.settings == "" {
		return "fake"
	}
	return e.settings
}

func (e *fakeEngine) Backend() string { return "fake" }

func (e *fakeEngine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string]*entity.Image
	err   error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string]*entity.Image)}
}

func (c *memoryCache) Get(ctx context.Context, key string) (*entity.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.items[key], nil
}

func (c *memoryCache) Set(ctx context.Context, key string, img *entity.Image) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.items[key] = img
	return nil
}

// memoryImages источник и приёмник пакета в памяти.
type memoryImages struct {
	mu     sync.Mutex
	images map[string]*entity.Image
	broken map[string]bool
}

func newMemoryImages() *memoryImages {
	return &memoryImages{images: make(map[string]*entity.Image), broken: make(map[string]bool)}
}

func (m *memoryImages) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.images)+len(m.broken))
	for name := range m.images {
		names = append(names, name)
	}
	for name := range m.broken {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *memoryImages) Load(ctx context.Context, name string) (*entity.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken[name] {
		return nil, errors.New("corrupted file")
	}
	img, ok := m.images[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return img.Clone(), nil
}

func (m *memoryImages) Exists(ctx context.Context, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.images[name]
	return ok
}

func (m *memoryImages) Save(ctx context.Context, name string, img *entity.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[name] = img
	return nil
}

func opaqueImage(w, h int) *entity.Image {
	img := entity.NewImage(w, h)
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	return img
}

func squareMask(w, h int) *entity.Mask {
	mask := entity.NewMask(w, h)
	mask.FillRect(w/4, h/4, w/2, h/2)
	return mask
}
