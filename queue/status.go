package queue

import (
	"sync"
	"time"

	"github.com/gemwallet/walletcore/primitives"
)

const maxErrorHistogramEntries = 32

// statusTracker accumulates the rolling ConsumerStatus a Runner flushes to
// the cache after every delivery (spec §4.2 obligation 4).
type statusTracker struct {
	mu             sync.Mutex
	name           string
	totalProcessed int64
	totalErrors    int64
	lastSuccessAt  *time.Time
	avgDurationMs  float64
	errors         map[string]*primitives.ConsumerErrorEntry
}

func newStatusTracker(name string) *statusTracker {
	return &statusTracker{name: name, errors: make(map[string]*primitives.ConsumerErrorEntry)}
}

// recordSuccess folds a successful delivery's duration into the rolling
// average using an exponential moving average, cheap and lock-scoped like
// the JobMetrics map spec §5 describes.
func (s *statusTracker) recordSuccess(duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalProcessed++
	now := time.Now().UTC()
	s.lastSuccessAt = &now
	s.updateAvg(duration)
}

// recordError folds a failed delivery into the bounded error histogram,
// keyed by message text; the histogram is capped at
// maxErrorHistogramEntries, evicting no existing entry once full (new
// distinct error messages beyond the cap are folded into the total count
// only, not one of their own).
func (s *statusTracker) recordError(duration time.Duration, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalErrors++
	s.updateAvg(duration)

	if entry, ok := s.errors[message]; ok {
		entry.Count++
		entry.LastSeen = time.Now().UTC()
		return
	}
	if len(s.errors) >= maxErrorHistogramEntries {
		return
	}
	s.errors[message] = &primitives.ConsumerErrorEntry{Message: message, Count: 1, LastSeen: time.Now().UTC()}
}

func (s *statusTracker) updateAvg(duration time.Duration) {
	const alpha = 0.2
	ms := float64(duration.Milliseconds())
	if s.avgDurationMs == 0 {
		s.avgDurationMs = ms
		return
	}
	s.avgDurationMs = alpha*ms + (1-alpha)*s.avgDurationMs
}

// snapshot returns the current ConsumerStatus for flushing to the cache.
func (s *statusTracker) snapshot() primitives.ConsumerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := make([]primitives.ConsumerErrorEntry, 0, len(s.errors))
	for _, e := range s.errors {
		errs = append(errs, *e)
	}
	return primitives.ConsumerStatus{
		Name:           s.name,
		TotalProcessed: s.totalProcessed,
		TotalErrors:    s.totalErrors,
		LastSuccessAt:  s.lastSuccessAt,
		AvgDurationMs:  s.avgDurationMs,
		Errors:         errs,
	}
}
