package common

import (
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	"io"
	"time"
)

// Result labels used by the dLock metrics
const (
	ResultSuccess      = "success"
	ResultFailure      = "failure"
	ResultFault        = "fault"
	ResultTimeout      = "timeout"
	ResultCancelled    = "cancelled"
	ResultRenewed      = "renewed"
	ResultLost         = "lost"
	ResultInconclusive = "inconclusive"
)

var (
	acquireDuration  = metrics.NewSummary("dlock_acquire_duration_seconds")
	janitorReleases  = metrics.NewCounter("dlock_janitor_releases_total")
	janitorDiscarded = metrics.NewCounter("dlock_janitor_discarded_total")
)

// RecordAcquire counts one quorum acquire attempt and tracks its duration
func RecordAcquire(result string, started time.Time) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`dlock_acquire_total{result=%q}`, result)).Inc()
	acquireDuration.UpdateDuration(started)
}

// RecordExtend counts one quorum extend attempt
func RecordExtend(result string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`dlock_extend_total{result=%q}`, result)).Inc()
}

// RecordRelease counts one quorum release
func RecordRelease(result string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`dlock_release_total{result=%q}`, result)).Inc()
}

// RecordJanitorRelease counts a release issued in the background after a pending operation resolved.
// discarded is true when the pending operation cleanly failed and no release was needed.
func RecordJanitorRelease(discarded bool) {
	if discarded {
		janitorDiscarded.Inc()
		return
	}
	janitorReleases.Inc()
}

// WriteMetrics writes all dLock metrics in the prometheus text format
func WriteMetrics(w io.Writer) {
	metrics.WritePrometheus(w, true)
}
