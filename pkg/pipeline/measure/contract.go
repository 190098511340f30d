package measure

import "time"

// Measure collects metrics by name. Implementations must be safe for concurrent use.
type Measure interface {
	AddMetric(name string) Metric
	GetMetric(name string) Metric
	AllMetrics() map[string]Metric
}

type Metric interface {
	AddDuration(elapsed time.Duration)
	AVGDuration() time.Duration
	Count() int64
	SetTotalDuration(total time.Duration)
	GetTotalDuration() time.Duration
}
