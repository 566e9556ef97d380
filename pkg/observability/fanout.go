package observability

import (
	"time"

	"taxonomy/application/ports"
)

// Fanout sends every measurement to each sink
type Fanout []ports.Metrics

// NewFanout drops nil sinks and returns nil when none remain
func NewFanout(sinks ...ports.Metrics) ports.Metrics {
	var out Fanout
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

func (f Fanout) RecordMutation(operation, outcome string, duration time.Duration) {
	for _, m := range f {
		m.RecordMutation(operation, outcome, duration)
	}
}

func (f Fanout) RecordRemoteCall(service, operation string, err error, duration time.Duration) {
	for _, m := range f {
		m.RecordRemoteCall(service, operation, err, duration)
	}
}

func (f Fanout) SetActiveSessions(n int) {
	for _, m := range f {
		m.SetActiveSessions(n)
	}
}

func (f Fanout) SetInFlight(n int) {
	for _, m := range f {
		m.SetInFlight(n)
	}
}
