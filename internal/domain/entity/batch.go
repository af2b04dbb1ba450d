package entity

// ImageStatus итог обработки одного изображения в пакете.
type ImageStatus string

const (
	StatusProcessed ImageStatus = "processed" // результат записан
	StatusSkipped   ImageStatus = "skipped"   // результат уже существовал
	StatusFailed    ImageStatus = "failed"    // ошибка, исходник не тронут
)

// ImageOutcome результат по одному файлу.
type ImageOutcome struct {
	Name   string
	Status ImageStatus
	Err    error
}

// BatchReport сводка пакетной обработки.
type BatchReport struct {
	Total     int
	Processed int
	Skipped   int
	Failed    int
	Cancelled bool
	Outcomes  []ImageOutcome
}

// Add учитывает результат очередного изображения.
func (r *BatchReport) Add(outcome ImageOutcome) {
	r.Outcomes = append(r.Outcomes, outcome)
	switch outcome.Status {
	case StatusProcessed:
		r.Processed++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
}
