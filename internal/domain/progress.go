package domain

import (
	"time"
)

// ProgressStatus is the state of a multi-step job.
type ProgressStatus string

// Progress states. done and error are terminal.
const (
	ProgressProcessing ProgressStatus = "processing"
	ProgressDone       ProgressStatus = "done"
	ProgressError      ProgressStatus = "error"
)

// ProgressRecord is the incremental status of one job execution. It is
// mutated only by the worker owning the job.
type ProgressRecord struct {
	Key         ResourceKey    `json:"key"`
	Status      ProgressStatus `json:"status"`
	Fraction    float64        `json:"fraction"`
	ErrorDetail string         `json:"error,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Terminal reports whether the record is in done or error.
func (r ProgressRecord) Terminal() bool {
	return r.Status == ProgressDone || r.Status == ProgressError
}

// Percent is the fraction as a whole percentage, rounded half up.
func (r ProgressRecord) Percent() int {
	return int(r.Fraction*100 + 0.5)
}

// ClampFraction keeps f within [0, 1].
func ClampFraction(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
