package spanline

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Span is a handle on one live span. It is created by Logger.Start and must
// be ended exactly once; Record and End on an ended span are no-ops, as is
// every method on a nil Span.
type Span struct {
	id     SpanID
	logger *Logger
	ended  atomic.Bool
}

// ID returns the span's registry id.
func (s *Span) ID() SpanID {
	if s == nil {
		return 0
	}
	return s.id
}

// Record merges additional attributes into the span. Repeated keys keep
// their original position in the span record with the newest value.
func (s *Span) Record(fields ...zap.Field) {
	if s == nil || s.ended.Load() {
		return
	}
	for _, layer := range s.logger.layers {
		layer.OnRecord(s.logger.reg, s.id, fields)
	}
}

// End closes the span. Its record is released along with it; events emitted
// afterwards no longer see this span in their ancestor chain.
func (s *Span) End() {
	if s == nil || !s.ended.CompareAndSwap(false, true) {
		return
	}
	for _, layer := range s.logger.layers {
		layer.OnSpanClose(s.logger.reg, s.id)
	}
	s.logger.reg.Remove(s.id)
}
