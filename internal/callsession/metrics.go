package callsession

import "sync/atomic"

// GlobalMetrics are process-wide atomic aggregates, folded in from each
// session's per-call Metrics on ENDED (spec §5: "global aggregates updated
// via atomic adds"), mirroring the teacher's ConnectionManager.GetStats
// rollup.
type GlobalMetrics struct {
	TotalCalls        int64
	CallsEnded        int64
	DurationEndings   int64
	SilenceEndings    int64
	VoicemailEndings  int64
	ProtocolEndings   int64
	FatalErrorEndings int64
}

var global GlobalMetrics

// RecordStart increments the total-calls counter.
func RecordStart() {
	atomic.AddInt64(&global.TotalCalls, 1)
}

// RecordEnd folds a session's end reason into the global aggregates.
func RecordEnd(reason string) {
	atomic.AddInt64(&global.CallsEnded, 1)
	switch reason {
	case "duration-exceeded":
		atomic.AddInt64(&global.DurationEndings, 1)
	case "silence":
		atomic.AddInt64(&global.SilenceEndings, 1)
	case "voicemail":
		atomic.AddInt64(&global.VoicemailEndings, 1)
	case "protocol":
		atomic.AddInt64(&global.ProtocolEndings, 1)
	case "fatal-error":
		atomic.AddInt64(&global.FatalErrorEndings, 1)
	}
}

// Snapshot returns a copy of the current global aggregates. The /stats
// endpoint does not include them; it reports only the active session count.
func Snapshot() GlobalMetrics {
	return GlobalMetrics{
		TotalCalls:        atomic.LoadInt64(&global.TotalCalls),
		CallsEnded:        atomic.LoadInt64(&global.CallsEnded),
		DurationEndings:   atomic.LoadInt64(&global.DurationEndings),
		SilenceEndings:    atomic.LoadInt64(&global.SilenceEndings),
		VoicemailEndings:  atomic.LoadInt64(&global.VoicemailEndings),
		ProtocolEndings:   atomic.LoadInt64(&global.ProtocolEndings),
		FatalErrorEndings: atomic.LoadInt64(&global.FatalErrorEndings),
	}
}
