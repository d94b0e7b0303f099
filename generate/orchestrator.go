package generate

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/coursegen/course"
	"github.com/kbukum/coursegen/errors"
	"github.com/kbukum/coursegen/logger"
)

const minLessonWords = 250

// Orchestrator runs the course generation pipeline against one backend
// and streams progress updates to the caller.
type Orchestrator struct {
	backend Backend
	log     *logger.Logger
	tracer  trace.Tracer
	metrics *pipelineMetrics
}

// NewOrchestrator builds an Orchestrator around the given backend.
func NewOrchestrator(backend Backend, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Orchestrator{
		backend: backend,
		log:     log.WithComponent("orchestrator").WithFields(map[string]interface{}{logger.FieldProvider: backend.Name()}),
		tracer:  otel.Tracer("github.com/kbukum/coursegen/generate"),
		metrics: newPipelineMetrics(),
	}
}

// GenerateCourseStream validates the request and starts a generation run.
// The returned channel carries one update per stage transition and is
// closed when the run finishes, whether it completed or failed. Invalid
// requests are reported synchronously and start no run.
//
// Cancel ctx to abandon a run; in-flight backend calls are cut short and
// the channel is closed without a terminal update.
func (o *Orchestrator) GenerateCourseStream(ctx context.Context, req Request) (<-chan course.GenerationUpdate, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	ch := make(chan course.GenerationUpdate)
	go o.run(ctx, req, ch)
	return ch, nil
}

func (o *Orchestrator) run(ctx context.Context, req Request, ch chan<- course.GenerationUpdate) {
	defer close(ch)

	ctx, span := o.tracer.Start(ctx, "generate.run", trace.WithAttributes(
		attribute.String("provider", o.backend.Name()),
		attribute.String("topic", req.Topic),
		attribute.String("difficulty", string(req.Difficulty)),
		attribute.String("format", string(req.Format)),
	))
	defer span.End()
	o.metrics.runStarted(ctx)

	research := o.research(ctx, req, ch)

	outline, ok := o.outline(ctx, req, research, ch)
	if !ok {
		o.endRun(ctx, course.StepOutlining)
		return
	}

	titles := outline.ModuleTitles
	withImages := req.GenerateImages && o.backend.SupportsImages()
	if req.GenerateImages && !withImages {
		o.log.Warn("image generation requested but not supported, skipping", map[string]interface{}{logger.FieldProvider: o.backend.Name()})
	}

	for i := range titles {
		mod, ok := o.module(ctx, req, outline, research, i, ch)
		if !ok {
			o.endRun(ctx, course.StepGeneratingModules)
			return
		}
		if withImages {
			o.illustrate(ctx, mod, ch)
		}
		if !o.send(ctx, ch, course.GenerationUpdate{
			Step: course.StepGeneratingModules, Phase: course.PhaseCompleted,
			Message:     fmt.Sprintf("Module %d of %d complete", i+1, len(titles)),
			ModuleIndex: i, ModuleTotal: len(titles),
			Module: mod,
		}) {
			o.metrics.runCanceled(ctx)
			return
		}
	}

	o.metrics.runCompleted(ctx)
	o.send(ctx, ch, course.GenerationUpdate{
		Step: course.StepDone, Phase: course.PhaseCompleted,
		Message: "Course generation complete",
	})
}

// endRun records why a run stopped short of done. A canceled context
// means the caller abandoned the run, not that a stage failed.
func (o *Orchestrator) endRun(ctx context.Context, step course.Step) {
	if ctx.Err() != nil {
		o.metrics.runCanceled(ctx)
		return
	}
	o.metrics.runFailed(ctx, step)
}

// research runs the optional search-grounded research pass. A failed
// pass degrades the run to ungrounded generation rather than ending it.
func (o *Orchestrator) research(ctx context.Context, req Request, ch chan<- course.GenerationUpdate) *ResearchResult {
	researcher, ok := o.backend.(Researcher)
	if !req.UseSearch || !ok || !o.backend.SupportsSearch() {
		return nil
	}

	ctx, span := o.tracer.Start(ctx, "generate.research")
	defer span.End()

	if !o.send(ctx, ch, course.GenerationUpdate{
		Step: course.StepResearching, Phase: course.PhaseStarted,
		Message: fmt.Sprintf("Researching %q", req.Topic),
	}) {
		return nil
	}

	res, err := researcher.Research(ctx, req.Topic)
	if err != nil {
		o.log.WithError(err).Warn("research pass failed, continuing without grounding")
		span.RecordError(err)
		return nil
	}
	o.send(ctx, ch, course.GenerationUpdate{
		Step: course.StepResearching, Phase: course.PhaseCompleted,
		Message:  "Research complete",
		Research: res.Text,
	})
	return res
}

func (o *Orchestrator) outline(ctx context.Context, req Request, research *ResearchResult, ch chan<- course.GenerationUpdate) (*course.Outline, bool) {
	ctx, span := o.tracer.Start(ctx, "generate.outline")
	defer span.End()

	if !o.send(ctx, ch, course.GenerationUpdate{
		Step: course.StepOutlining, Phase: course.PhaseStarted,
		Message: "Designing the course outline",
	}) {
		return nil, false
	}

	oreq := OutlineRequest{
		Topic:      req.Topic,
		Difficulty: req.Difficulty,
		Format:     req.Format,
		Model:      req.Model,
	}
	if research != nil {
		oreq.Research = research.Text
	}

	outline, err := o.backend.GenerateOutline(ctx, oreq)
	if err == nil {
		err = outline.Validate()
	}
	if err != nil {
		o.fail(ctx, ch, span, course.StepOutlining, err)
		return nil, false
	}
	if research != nil {
		outline.AttachSources(research.Sources)
	}

	if !o.send(ctx, ch, course.GenerationUpdate{
		Step: course.StepOutlining, Phase: course.PhaseCompleted,
		Message: fmt.Sprintf("Outline ready: %d modules", len(outline.ModuleTitles)),
		Outline: outline,
	}) {
		return nil, false
	}
	return outline, true
}

func (o *Orchestrator) module(ctx context.Context, req Request, outline *course.Outline, research *ResearchResult, idx int, ch chan<- course.GenerationUpdate) (*course.Module, bool) {
	titles := outline.ModuleTitles
	title := titles[idx]

	ctx, span := o.tracer.Start(ctx, "generate.module", trace.WithAttributes(
		attribute.Int("module.index", idx),
		attribute.String("module.title", title),
	))
	defer span.End()

	if !o.send(ctx, ch, course.GenerationUpdate{
		Step: course.StepGeneratingModules, Phase: course.PhaseStarted,
		Message:     fmt.Sprintf("Writing module %d of %d: %s", idx+1, len(titles), title),
		ModuleIndex: idx, ModuleTotal: len(titles),
	}) {
		return nil, false
	}

	mreq := ModuleRequest{
		Topic:            req.Topic,
		Difficulty:       req.Difficulty,
		Format:           req.Format,
		Model:            req.Model,
		Title:            title,
		AllTitles:        titles,
		CoveredTitles:    titles[:idx],
		WithImagePrompts: req.GenerateImages && o.backend.SupportsImages(),
	}
	if research != nil {
		mreq.Research = research.Text
	}

	mod, err := o.backend.GenerateModule(ctx, mreq)
	if err == nil {
		err = mod.Validate()
	}
	if err != nil {
		o.failModule(ctx, ch, span, idx, len(titles), err)
		return nil, false
	}

	// The outline owns module titles. Models occasionally restyle the
	// title they were given; the outline's wording wins.
	mod.Title = title

	for _, l := range mod.Lessons {
		if n := l.WordCount(); n < minLessonWords {
			o.log.Warn("lesson shorter than requested", map[string]interface{}{
				"module": title, "lesson": l.Title, "words": n,
			})
		}
	}
	return mod, true
}

// illustrate renders one image per lesson that carries a prompt. Lessons
// are rendered concurrently; a failed render logs a warning and leaves
// that lesson without an image, it never ends the run.
func (o *Orchestrator) illustrate(ctx context.Context, mod *course.Module, ch chan<- course.GenerationUpdate) {
	gen, ok := o.backend.(ImageGenerator)
	if !ok {
		return
	}

	ctx, span := o.tracer.Start(ctx, "generate.images", trace.WithAttributes(
		attribute.String("module.title", mod.Title),
	))
	defer span.End()

	var wg sync.WaitGroup
	for i := range mod.Lessons {
		lesson := &mod.Lessons[i]
		if lesson.ImagePrompt == "" {
			continue
		}
		if !o.send(ctx, ch, course.GenerationUpdate{
			Step: course.StepGeneratingImages, Phase: course.PhaseStarted,
			Message: fmt.Sprintf("Illustrating %q", lesson.Title),
			Lesson:  lesson.Title,
		}) {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			img, err := gen.GenerateImage(ctx, lesson.ImagePrompt)
			if err != nil {
				o.log.WithError(err).Warn("image generation failed, lesson left without image", map[string]interface{}{
					"module": mod.Title, "lesson": lesson.Title,
				})
				return
			}
			lesson.ImageBase64 = img
		}()
	}
	wg.Wait()
}

// send delivers an update unless the run has been canceled. It returns
// false when the caller is gone and the run should stop.
func (o *Orchestrator) send(ctx context.Context, ch chan<- course.GenerationUpdate, upd course.GenerationUpdate) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case ch <- upd:
		return true
	case <-ctx.Done():
		o.log.Debug("generation canceled", map[string]interface{}{"step": string(upd.Step)})
		return false
	}
}

func (o *Orchestrator) fail(ctx context.Context, ch chan<- course.GenerationUpdate, span trace.Span, step course.Step, err error) {
	stageErr := errors.StageFailed(string(step), err)
	span.RecordError(stageErr)
	o.log.WithError(err).Error("stage failed", map[string]interface{}{logger.FieldStage: string(step)})
	o.send(ctx, ch, course.GenerationUpdate{
		Step: step, Phase: course.PhaseFailed,
		Message: stageErr.Message,
		Error:   err.Error(),
	})
}

func (o *Orchestrator) failModule(ctx context.Context, ch chan<- course.GenerationUpdate, span trace.Span, idx, total int, err error) {
	stageErr := errors.StageFailed(string(course.StepGeneratingModules), err)
	span.RecordError(stageErr)
	o.log.WithError(err).Error("stage failed", map[string]interface{}{
		logger.FieldStage: string(course.StepGeneratingModules), "module_index": idx,
	})
	o.send(ctx, ch, course.GenerationUpdate{
		Step: course.StepGeneratingModules, Phase: course.PhaseFailed,
		Message:     stageErr.Message,
		ModuleIndex: idx, ModuleTotal: total,
		Error: err.Error(),
	})
}
