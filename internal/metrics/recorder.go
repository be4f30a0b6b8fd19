package metrics

import "time"

// CompileOutcome classifies a finished compile pass.
type CompileOutcome string

const (
	OutcomeSuccess CompileOutcome = "success"
	OutcomePartial CompileOutcome = "partial"
	OutcomeFailed  CompileOutcome = "failed"
)

// OutcomeFor classifies a pass from its failure count. err is
// the pass-level error, if any.
func OutcomeFor(err error, failures int) CompileOutcome {
	switch {
	case err != nil:
		return OutcomeFailed
	case failures > 0:
		return OutcomePartial
	default:
		return OutcomeSuccess
	}
}

// Recorder defines observability hooks for compile passes and the dev server.
// Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveCompileDuration(d time.Duration)
	IncCompileOutcome(outcome CompileOutcome)
	SetArtifacts(n int)
	IncFileFailure(ext string)
	IncReloadBroadcast()
	SetLiveReloadClients(n int)
	IncRequest(status int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveCompileDuration(time.Duration)  {}
func (NoopRecorder) IncCompileOutcome(CompileOutcome)      {}
func (NoopRecorder) SetArtifacts(int)                      {}
func (NoopRecorder) IncFileFailure(string)                 {}
func (NoopRecorder) IncReloadBroadcast()                   {}
func (NoopRecorder) SetLiveReloadClients(int)              {}
func (NoopRecorder) IncRequest(int)                        {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
