package commit

import (
	"context"

	"go.uber.org/zap"
)

type compensation struct {
	name string
	// orphans marks undos whose failure leaves order rows behind.
	orphans bool
	undo    func(ctx context.Context) error
}

// saga records the undo of every completed write and replays them newest first.
type saga struct {
	steps  []compensation
	logger *zap.Logger
}

func (s *saga) record(name string, orphans bool, undo func(ctx context.Context) error) {
	s.steps = append(s.steps, compensation{name: name, orphans: orphans, undo: undo})
}

// compensate runs every recorded undo, even after one fails, and reports whether an
// order row may have been left behind.
func (s *saga) compensate(ctx context.Context) (orphaned bool) {
	for i := len(s.steps) - 1; i >= 0; i-- {
		step := s.steps[i]
		if err := step.undo(ctx); err != nil {
			s.logger.Error("compensation failed", zap.String("step", step.name), zap.Error(err))
			if step.orphans {
				orphaned = true
			}
			continue
		}
		s.logger.Debug("compensation applied", zap.String("step", step.name))
	}
	s.steps = nil
	return orphaned
}
