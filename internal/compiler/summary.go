package compiler

import "time"

// Summary describes a finished compile pass for history and event consumers.
type Summary struct {
	BuildID   string    `json:"build_id"`
	Trigger   string    `json:"trigger"`
	StartedAt time.Time `json:"started_at"`
	Duration  float64   `json:"duration_ms"`
	Artifacts int       `json:"artifacts"`
	Failures  int       `json:"failures"`
	Bytes     int64     `json:"bytes"`
	Digest    string    `json:"digest,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Triggers recorded in Summary.
const (
	TriggerBuild = "build"
	TriggerServe = "serve"
	TriggerWatch = "watch"
	TriggerPoll  = "poll"
)

// Summarize describes res, or a failed pass when err is set.
func Summarize(trigger string, started time.Time, res *Result, err error) Summary {
	s := Summary{Trigger: trigger, StartedAt: started.UTC()}
	if err != nil {
		s.Error = err.Error()
		s.Duration = float64(time.Since(started).Microseconds()) / 1000
		return s
	}
	s.BuildID = res.BuildID
	s.Duration = float64(res.Duration.Microseconds()) / 1000
	s.Artifacts = len(res.Artifacts)
	s.Failures = len(res.Failures)
	s.Bytes = res.Artifacts.TotalSize()
	s.Digest = res.Artifacts.Digest()
	return s
}
