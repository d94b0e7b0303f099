package generate

import (
	"context"
	"fmt"

	"github.com/kbukum/coursegen/course"
	"github.com/kbukum/coursegen/errors"
)

// Collect runs a generation to completion and assembles the streamed
// updates into a Course. It is the non-streaming convenience over
// GenerateCourseStream; a stage failure surfaces as the error.
func (o *Orchestrator) Collect(ctx context.Context, req Request) (*course.Course, error) {
	ch, err := o.GenerateCourseStream(ctx, req)
	if err != nil {
		return nil, err
	}

	c := &course.Course{
		Topic:      req.Topic,
		Difficulty: req.Difficulty,
		Format:     req.Format,
	}
	done := false
	for upd := range ch {
		switch upd.Phase {
		case course.PhaseFailed:
			return nil, errors.StageFailed(string(upd.Step), fmt.Errorf("%s", upd.Error))
		case course.PhaseCompleted:
			switch {
			case upd.Outline != nil:
				c.Outline = *upd.Outline
			case upd.Module != nil:
				c.Modules = append(c.Modules, *upd.Module)
			case upd.Step == course.StepDone:
				done = true
			}
		}
	}
	if !done {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, errors.Internal(nil)
	}
	return c, nil
}
