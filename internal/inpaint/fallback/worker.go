package fallback

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrWorkerStopped воркер остановлен и больше не принимает запросы.
var ErrWorkerStopped = errors.New("fallback worker stopped")

// Kind тип ответа воркера.
type Kind string

const (
	KindProgress Kind = "progress"
	KindResult   Kind = "result"
	KindError    Kind = "error"
)

// Request запрос на синтез. После отправки буферы принадлежат воркеру.
type Request struct {
	Image  []uint8 // RGBA
	Mask   []uint8 // интенсивность, один байт на пиксель
	Width  int
	Height int
}

// Response сообщение воркера: progress, затем ровно один result или error.
type Response struct {
	Kind    Kind
	Percent int
	Pixels  []uint8
	Message string
}

type job struct {
	req Request
	out chan Response
}

// Worker фоновая задача синтеза, общается только сообщениями.
type Worker struct {
	params  Params
	jobs    chan job
	stopped chan struct{}
	once    sync.Once
}

// NewWorker создаёт воркер. Запросы обрабатываются после Start.
func NewWorker(params Params) *Worker {
	return &Worker{
		params:  params,
		jobs:    make(chan job, 1),
		stopped: make(chan struct{}),
	}
}

// Params возвращает параметры синтеза воркера.
func (w *Worker) Params() Params {
	return w.params
}

// Start запускает цикл обработки до отмены ctx или вызова Stop.
func (w *Worker) Start(ctx context.Context) {
	go func() {
		defer w.drain()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopped:
				return
			case j := <-w.jobs:
				w.handle(j)
			}
		}
	}()
}

// Stop останавливает воркер. Повторные вызовы безопасны.
func (w *Worker) Stop() {
	w.once.Do(func() { close(w.stopped) })
}

// drain останавливает воркер и отвечает ошибкой на запросы, оставшиеся в очереди.
func (w *Worker) drain() {
	w.Stop()
	for {
		select {
		case j := <-w.jobs:
			j.out <- Response{Kind: KindError, Message: ErrWorkerStopped.Error()}
			close(j.out)
		default:
			return
		}
	}
}

// Submit ставит запрос в очередь и возвращает канал ответов.
// Канал закрывается после финального сообщения.
func (w *Worker) Submit(ctx context.Context, req Request) (<-chan Response, error) {
	out := make(chan Response, 16)
	select {
	case <-w.stopped:
		return nil, ErrWorkerStopped
	default:
	}

	select {
	case w.jobs <- job{req: req, out: out}:
		return out, nil
	case <-w.stopped:
		return nil, ErrWorkerStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (w *Worker) handle(j job) {
	defer close(j.out)
	defer func() {
		if r := recover(); r != nil {
			j.out <- Response{Kind: KindError, Message: fmt.Sprint(r)}
		}
	}()

	// последнее место в буфере всегда остаётся под финальный ответ,
	// чтобы воркер не завис, если читатель ушёл
	report := func(percent int) {
		if len(j.out) >= cap(j.out)-1 {
			return
		}
		j.out <- Response{Kind: KindProgress, Percent: percent}
	}

	pixels, err := Run(j.req.Image, j.req.Mask, j.req.Width, j.req.Height, w.params, report)
	if err != nil {
		j.out <- Response{Kind: KindError, Message: err.Error()}
		return
	}
	j.out <- Response{Kind: KindResult, Pixels: pixels}
}
