package generate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kbukum/coursegen/catalog"
	"github.com/kbukum/coursegen/course"
)

type fakeBackend struct {
	mu sync.Mutex

	images bool
	search bool

	outlineFn  func(req OutlineRequest) (*course.Outline, error)
	moduleFn   func(req ModuleRequest) (*course.Module, error)
	imageFn    func(prompt string) (string, error)
	researchFn func(topic string) (*ResearchResult, error)

	outlineReqs []OutlineRequest
	moduleReqs  []ModuleRequest
	imageCalls  int
}

func (f *fakeBackend) Name() string                     { return "fake" }
func (f *fakeBackend) IsAvailable(context.Context) bool { return true }
func (f *fakeBackend) SupportsImages() bool             { return f.images }
func (f *fakeBackend) SupportsSearch() bool             { return f.search }

func (f *fakeBackend) Models(context.Context) ([]catalog.ModelInfo, error) {
	return catalog.FallbackModels(), nil
}

func (f *fakeBackend) GenerateOutline(_ context.Context, req OutlineRequest) (*course.Outline, error) {
	f.mu.Lock()
	f.outlineReqs = append(f.outlineReqs, req)
	f.mu.Unlock()
	return f.outlineFn(req)
}

func (f *fakeBackend) GenerateModule(_ context.Context, req ModuleRequest) (*course.Module, error) {
	f.mu.Lock()
	f.moduleReqs = append(f.moduleReqs, req)
	f.mu.Unlock()
	return f.moduleFn(req)
}

func (f *fakeBackend) GenerateImage(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.imageCalls++
	f.mu.Unlock()
	if f.imageFn == nil {
		return "aW1n", nil
	}
	return f.imageFn(prompt)
}

func (f *fakeBackend) Research(_ context.Context, topic string) (*ResearchResult, error) {
	return f.researchFn(topic)
}

func testOutline(titles ...string) *course.Outline {
	return &course.Outline{
		Title:              "Test Course",
		Description:        "A course for testing.",
		LearningObjectives: []string{"learn things"},
		ModuleTitles:       titles,
	}
}

func testModule(title string, withPrompts bool) *course.Module {
	mod := &course.Module{
		Title:       title,
		Description: "module description",
		Lessons: []course.Lesson{
			{Title: title + " lesson 1", Content: "lesson content one"},
			{Title: title + " lesson 2", Content: "lesson content two"},
		},
	}
	if withPrompts {
		for i := range mod.Lessons {
			mod.Lessons[i].ImagePrompt = "an illustration of " + mod.Lessons[i].Title
		}
	}
	return mod
}

func collectUpdates(t *testing.T, ch <-chan course.GenerationUpdate) []course.GenerationUpdate {
	t.Helper()
	var updates []course.GenerationUpdate
	deadline := time.After(5 * time.Second)
	for {
		select {
		case upd, ok := <-ch:
			if !ok {
				return updates
			}
			updates = append(updates, upd)
		case <-deadline:
			t.Fatalf("stream did not close, got %d updates so far", len(updates))
		}
	}
}

func TestGenerateCourseStreamHappyPath(t *testing.T) {
	backend := &fakeBackend{
		outlineFn: func(OutlineRequest) (*course.Outline, error) {
			return testOutline("Basics", "Practice", "Mastery"), nil
		},
		moduleFn: func(req ModuleRequest) (*course.Module, error) {
			return testModule(req.Title, false), nil
		},
	}
	o := NewOrchestrator(backend, nil)

	ch, err := o.GenerateCourseStream(context.Background(), Request{Topic: "Go"})
	if err != nil {
		t.Fatalf("GenerateCourseStream: %v", err)
	}
	updates := collectUpdates(t, ch)

	var outlineCompleted, moduleCompleted, doneSeen int
	firstModuleUpdate := -1
	outlineCompletedAt := -1
	for i, upd := range updates {
		if upd.Phase == course.PhaseFailed {
			t.Fatalf("unexpected failed update: %+v", upd)
		}
		switch {
		case upd.Step == course.StepOutlining && upd.Phase == course.PhaseCompleted:
			outlineCompleted++
			outlineCompletedAt = i
			if upd.Outline == nil || upd.Outline.Title != "Test Course" {
				t.Errorf("outline completed update missing payload: %+v", upd)
			}
		case upd.Step == course.StepGeneratingModules:
			if firstModuleUpdate == -1 {
				firstModuleUpdate = i
			}
			if upd.Phase == course.PhaseCompleted {
				moduleCompleted++
				if upd.Module == nil {
					t.Fatalf("module completed update missing payload: %+v", upd)
				}
			}
		case upd.Step == course.StepDone:
			doneSeen++
			if i != len(updates)-1 {
				t.Errorf("done update at index %d, want last (%d)", i, len(updates)-1)
			}
		}
	}
	if outlineCompleted != 1 {
		t.Errorf("outline completed updates = %d, want 1", outlineCompleted)
	}
	if firstModuleUpdate != -1 && firstModuleUpdate < outlineCompletedAt {
		t.Errorf("module update at %d preceded outline completion at %d", firstModuleUpdate, outlineCompletedAt)
	}
	if moduleCompleted != 3 {
		t.Errorf("module completed updates = %d, want 3", moduleCompleted)
	}
	if doneSeen != 1 {
		t.Errorf("done updates = %d, want 1", doneSeen)
	}
}

func TestGenerateCourseStreamForcesOutlineTitles(t *testing.T) {
	backend := &fakeBackend{
		outlineFn: func(OutlineRequest) (*course.Outline, error) {
			return testOutline("Basics", "Practice", "Mastery"), nil
		},
		moduleFn: func(req ModuleRequest) (*course.Module, error) {
			// Restyle the title like models sometimes do.
			return testModule("Module: "+strings.ToUpper(req.Title), false), nil
		},
	}
	o := NewOrchestrator(backend, nil)

	ch, err := o.GenerateCourseStream(context.Background(), Request{Topic: "Go"})
	if err != nil {
		t.Fatalf("GenerateCourseStream: %v", err)
	}
	var got []string
	for _, upd := range collectUpdates(t, ch) {
		if upd.Step == course.StepGeneratingModules && upd.Phase == course.PhaseCompleted {
			got = append(got, upd.Module.Title)
		}
	}
	want := []string{"Basics", "Practice", "Mastery"}
	if len(got) != len(want) {
		t.Fatalf("module titles = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("module %d title = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGenerateCourseStreamCoveredTitles(t *testing.T) {
	backend := &fakeBackend{
		outlineFn: func(OutlineRequest) (*course.Outline, error) {
			return testOutline("A", "B", "C"), nil
		},
		moduleFn: func(req ModuleRequest) (*course.Module, error) {
			return testModule(req.Title, false), nil
		},
	}
	o := NewOrchestrator(backend, nil)

	ch, err := o.GenerateCourseStream(context.Background(), Request{Topic: "Go"})
	if err != nil {
		t.Fatalf("GenerateCourseStream: %v", err)
	}
	collectUpdates(t, ch)

	if len(backend.moduleReqs) != 3 {
		t.Fatalf("module requests = %d, want 3", len(backend.moduleReqs))
	}
	reqB := backend.moduleReqs[1]
	if reqB.Title != "B" {
		t.Fatalf("second module request title = %q, want B", reqB.Title)
	}
	if len(reqB.CoveredTitles) != 1 || reqB.CoveredTitles[0] != "A" {
		t.Errorf("covered titles for B = %v, want [A]", reqB.CoveredTitles)
	}
	for _, c := range reqB.CoveredTitles {
		if c == "C" {
			t.Errorf("covered titles for B include upcoming module C")
		}
	}
	if len(reqB.AllTitles) != 3 {
		t.Errorf("all titles for B = %v, want the full outline", reqB.AllTitles)
	}
}

func TestGenerateCourseStreamOutlineFailureIsFatal(t *testing.T) {
	backend := &fakeBackend{
		outlineFn: func(OutlineRequest) (*course.Outline, error) {
			return nil, fmt.Errorf("upstream exploded")
		},
		moduleFn: func(req ModuleRequest) (*course.Module, error) {
			t.Error("module generation ran after outline failure")
			return testModule(req.Title, false), nil
		},
	}
	o := NewOrchestrator(backend, nil)

	ch, err := o.GenerateCourseStream(context.Background(), Request{Topic: "Go"})
	if err != nil {
		t.Fatalf("GenerateCourseStream: %v", err)
	}
	updates := collectUpdates(t, ch)

	last := updates[len(updates)-1]
	if last.Step != course.StepOutlining || last.Phase != course.PhaseFailed {
		t.Fatalf("last update = %+v, want outlining failed", last)
	}
	if !strings.Contains(last.Error, "upstream exploded") {
		t.Errorf("failed update error = %q, want the cause", last.Error)
	}
	for _, upd := range updates {
		if upd.Step == course.StepDone {
			t.Errorf("done update emitted after a fatal failure")
		}
	}
}

func TestGenerateCourseStreamInvalidOutlineIsFatal(t *testing.T) {
	backend := &fakeBackend{
		outlineFn: func(OutlineRequest) (*course.Outline, error) {
			return &course.Outline{Title: "No modules"}, nil
		},
		moduleFn: func(req ModuleRequest) (*course.Module, error) {
			return testModule(req.Title, false), nil
		},
	}
	o := NewOrchestrator(backend, nil)

	ch, err := o.GenerateCourseStream(context.Background(), Request{Topic: "Go"})
	if err != nil {
		t.Fatalf("GenerateCourseStream: %v", err)
	}
	updates := collectUpdates(t, ch)
	last := updates[len(updates)-1]
	if last.Step != course.StepOutlining || last.Phase != course.PhaseFailed {
		t.Fatalf("last update = %+v, want outlining failed", last)
	}
}

func TestGenerateCourseStreamOversizedOutlineIsFatal(t *testing.T) {
	backend := &fakeBackend{
		outlineFn: func(OutlineRequest) (*course.Outline, error) {
			return testOutline("One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight"), nil
		},
		moduleFn: func(req ModuleRequest) (*course.Module, error) {
			t.Error("module generation ran on an oversized outline")
			return testModule(req.Title, false), nil
		},
	}
	o := NewOrchestrator(backend, nil)

	ch, err := o.GenerateCourseStream(context.Background(), Request{Topic: "Go"})
	if err != nil {
		t.Fatalf("GenerateCourseStream: %v", err)
	}
	updates := collectUpdates(t, ch)
	last := updates[len(updates)-1]
	if last.Step != course.StepOutlining || last.Phase != course.PhaseFailed {
		t.Fatalf("last update = %+v, want outlining failed", last)
	}
	if !strings.Contains(last.Error, "module titles") {
		t.Errorf("failed update error = %q, want the title-count violation", last.Error)
	}
}

func TestGenerateCourseStreamModuleFailureAfterStreaming(t *testing.T) {
	backend := &fakeBackend{
		outlineFn: func(OutlineRequest) (*course.Outline, error) {
			return testOutline("First", "Second", "Third"), nil
		},
		moduleFn: func(req ModuleRequest) (*course.Module, error) {
			if req.Title == "Second" {
				return nil, fmt.Errorf("model timeout")
			}
			return testModule(req.Title, false), nil
		},
	}
	o := NewOrchestrator(backend, nil)

	ch, err := o.GenerateCourseStream(context.Background(), Request{Topic: "Go"})
	if err != nil {
		t.Fatalf("GenerateCourseStream: %v", err)
	}
	updates := collectUpdates(t, ch)

	var completed int
	for _, upd := range updates {
		if upd.Step == course.StepGeneratingModules && upd.Phase == course.PhaseCompleted {
			completed++
		}
	}
	if completed != 1 {
		t.Errorf("module completed updates before failure = %d, want 1", completed)
	}
	last := updates[len(updates)-1]
	if last.Step != course.StepGeneratingModules || last.Phase != course.PhaseFailed {
		t.Fatalf("last update = %+v, want generating_modules failed", last)
	}
	if last.ModuleIndex != 1 {
		t.Errorf("failed update module index = %d, want 1", last.ModuleIndex)
	}
	if len(backend.moduleReqs) != 2 {
		t.Errorf("module requests = %d, want 2 (no third module after failure)", len(backend.moduleReqs))
	}
}

func TestGenerateCourseStreamImageFailureIsolated(t *testing.T) {
	backend := &fakeBackend{
		images: true,
		outlineFn: func(OutlineRequest) (*course.Outline, error) {
			return testOutline("Intro", "Core", "Wrap"), nil
		},
		moduleFn: func(req ModuleRequest) (*course.Module, error) {
			if !req.WithImagePrompts {
				t.Error("module request missing image prompt flag")
			}
			return testModule(req.Title, true), nil
		},
		imageFn: func(prompt string) (string, error) {
			if strings.Contains(prompt, "Core lesson 2") {
				return "", fmt.Errorf("image backend down")
			}
			return "aW1hZ2U=", nil
		},
	}
	o := NewOrchestrator(backend, nil)

	ch, err := o.GenerateCourseStream(context.Background(), Request{Topic: "Go", GenerateImages: true})
	if err != nil {
		t.Fatalf("GenerateCourseStream: %v", err)
	}
	updates := collectUpdates(t, ch)

	mods := make(map[string]*course.Module)
	var imageStarted int
	for _, upd := range updates {
		if upd.Phase == course.PhaseFailed {
			t.Fatalf("image failure leaked as a failed update: %+v", upd)
		}
		if upd.Step == course.StepGeneratingImages {
			imageStarted++
		}
		if upd.Step == course.StepGeneratingModules && upd.Phase == course.PhaseCompleted {
			mods[upd.Module.Title] = upd.Module
		}
	}
	if imageStarted != 6 {
		t.Errorf("image updates = %d, want 6", imageStarted)
	}
	if len(mods) != 3 {
		t.Fatalf("completed modules = %d, want 3", len(mods))
	}
	for title, mod := range mods {
		for i, l := range mod.Lessons {
			failed := title == "Core" && i == 1
			if failed && l.ImageBase64 != "" {
				t.Errorf("failed lesson %q kept an image", l.Title)
			}
			if !failed && l.ImageBase64 == "" {
				t.Errorf("lesson %q lost its image", l.Title)
			}
		}
	}
	if updates[len(updates)-1].Step != course.StepDone {
		t.Errorf("run did not finish after an isolated image failure")
	}
}

func TestGenerateCourseStreamNoImagesWhenNotRequested(t *testing.T) {
	backend := &fakeBackend{
		images: true,
		outlineFn: func(OutlineRequest) (*course.Outline, error) {
			return testOutline("Light Reactions", "Dark Reactions", "Limiting Factors"), nil
		},
		moduleFn: func(req ModuleRequest) (*course.Module, error) {
			if req.WithImagePrompts {
				t.Error("image prompts requested on a no-images run")
			}
			return testModule(req.Title, false), nil
		},
	}
	o := NewOrchestrator(backend, nil)

	ch, err := o.GenerateCourseStream(context.Background(), Request{Topic: "Photosynthesis"})
	if err != nil {
		t.Fatalf("GenerateCourseStream: %v", err)
	}
	for _, upd := range collectUpdates(t, ch) {
		if upd.Step == course.StepGeneratingImages {
			t.Errorf("image update on a no-images run: %+v", upd)
		}
	}
	if backend.imageCalls != 0 {
		t.Errorf("image calls = %d, want 0", backend.imageCalls)
	}
}

func TestGenerateCourseStreamResearchPass(t *testing.T) {
	backend := &fakeBackend{
		search: true,
		researchFn: func(topic string) (*ResearchResult, error) {
			return &ResearchResult{
				Text:    "notes about " + topic,
				Sources: []course.Source{{Title: "ref", URL: "https://example.com/ref"}},
			}, nil
		},
		outlineFn: func(req OutlineRequest) (*course.Outline, error) {
			if req.Research == "" {
				t.Error("outline request missing research notes")
			}
			return testOutline("A", "B", "C"), nil
		},
		moduleFn: func(req ModuleRequest) (*course.Module, error) {
			if req.Research == "" {
				t.Error("module request missing research notes")
			}
			return testModule(req.Title, false), nil
		},
	}
	o := NewOrchestrator(backend, nil)

	ch, err := o.GenerateCourseStream(context.Background(), Request{Topic: "Go", UseSearch: true})
	if err != nil {
		t.Fatalf("GenerateCourseStream: %v", err)
	}
	updates := collectUpdates(t, ch)

	if updates[0].Step != course.StepResearching || updates[0].Phase != course.PhaseStarted {
		t.Fatalf("first update = %+v, want researching started", updates[0])
	}
	var outline *course.Outline
	var researchCompleted bool
	for _, upd := range updates {
		if upd.Step == course.StepResearching && upd.Phase == course.PhaseCompleted {
			researchCompleted = true
			if upd.Research == "" {
				t.Error("research completed update missing notes")
			}
		}
		if upd.Outline != nil {
			outline = upd.Outline
		}
	}
	if !researchCompleted {
		t.Error("no research completed update")
	}
	if outline == nil || len(outline.Sources) != 1 {
		t.Errorf("outline did not pick up research sources: %+v", outline)
	}
}

func TestGenerateCourseStreamResearchFailureDegrades(t *testing.T) {
	backend := &fakeBackend{
		search: true,
		researchFn: func(string) (*ResearchResult, error) {
			return nil, fmt.Errorf("search quota exhausted")
		},
		outlineFn: func(req OutlineRequest) (*course.Outline, error) {
			if req.Research != "" {
				t.Error("outline request carries research after a failed pass")
			}
			return testOutline("A", "B", "C"), nil
		},
		moduleFn: func(req ModuleRequest) (*course.Module, error) {
			return testModule(req.Title, false), nil
		},
	}
	o := NewOrchestrator(backend, nil)

	ch, err := o.GenerateCourseStream(context.Background(), Request{Topic: "Go", UseSearch: true})
	if err != nil {
		t.Fatalf("GenerateCourseStream: %v", err)
	}
	updates := collectUpdates(t, ch)
	if updates[len(updates)-1].Step != course.StepDone {
		t.Errorf("run did not finish after a failed research pass")
	}
	for _, upd := range updates {
		if upd.Phase == course.PhaseFailed {
			t.Errorf("research failure leaked as a failed update: %+v", upd)
		}
	}
}

func TestGenerateCourseStreamInvalidRequest(t *testing.T) {
	o := NewOrchestrator(&fakeBackend{}, nil)

	if _, err := o.GenerateCourseStream(context.Background(), Request{Topic: "   "}); err == nil {
		t.Error("blank topic accepted")
	}
	if _, err := o.GenerateCourseStream(context.Background(), Request{Topic: "Go", Difficulty: "impossible"}); err == nil {
		t.Error("unknown difficulty accepted")
	}
	if _, err := o.GenerateCourseStream(context.Background(), Request{Topic: "Go", Format: "carrier-pigeon"}); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestGenerateCourseStreamCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	backend := &fakeBackend{
		outlineFn: func(OutlineRequest) (*course.Outline, error) {
			return testOutline("A", "B", "C"), nil
		},
		moduleFn: func(req ModuleRequest) (*course.Module, error) {
			cancel()
			return testModule(req.Title, false), nil
		},
	}
	o := NewOrchestrator(backend, nil)

	ch, err := o.GenerateCourseStream(ctx, Request{Topic: "Go"})
	if err != nil {
		t.Fatalf("GenerateCourseStream: %v", err)
	}
	updates := collectUpdates(t, ch)
	for _, upd := range updates {
		if upd.Step == course.StepDone {
			t.Errorf("done update on a canceled run")
		}
	}
}

func TestCancellationNotCountedAsStageFailure(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	ctx, cancel := context.WithCancel(context.Background())
	backend := &fakeBackend{
		outlineFn: func(OutlineRequest) (*course.Outline, error) {
			return testOutline("A", "B", "C"), nil
		},
		moduleFn: func(req ModuleRequest) (*course.Module, error) {
			cancel()
			return testModule(req.Title, false), nil
		},
	}
	o := NewOrchestrator(backend, nil)

	ch, err := o.GenerateCourseStream(ctx, Request{Topic: "Go"})
	if err != nil {
		t.Fatalf("GenerateCourseStream: %v", err)
	}
	collectUpdates(t, ch)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collecting metrics: %v", err)
	}
	var sawCanceled bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case "coursegen.runs.failed":
				t.Error("canceled run counted as a stage failure")
			case "coursegen.runs.canceled":
				sawCanceled = true
			}
		}
	}
	if !sawCanceled {
		t.Error("canceled run not counted as canceled")
	}
}

func TestCollect(t *testing.T) {
	backend := &fakeBackend{
		outlineFn: func(OutlineRequest) (*course.Outline, error) {
			return testOutline("Basics", "Practice", "Mastery"), nil
		},
		moduleFn: func(req ModuleRequest) (*course.Module, error) {
			return testModule(req.Title, false), nil
		},
	}
	o := NewOrchestrator(backend, nil)

	c, err := o.Collect(context.Background(), Request{Topic: "Go", Difficulty: course.DifficultyAdvanced})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if c.Outline.Title != "Test Course" {
		t.Errorf("course outline title = %q", c.Outline.Title)
	}
	if len(c.Modules) != 3 {
		t.Fatalf("modules = %d, want 3", len(c.Modules))
	}
	if c.Modules[2].Title != "Mastery" {
		t.Errorf("last module title = %q, want Mastery", c.Modules[2].Title)
	}
	if c.Difficulty != course.DifficultyAdvanced {
		t.Errorf("difficulty = %q", c.Difficulty)
	}
}

func TestCollectStageFailure(t *testing.T) {
	backend := &fakeBackend{
		outlineFn: func(OutlineRequest) (*course.Outline, error) {
			return nil, fmt.Errorf("no capacity")
		},
		moduleFn: func(req ModuleRequest) (*course.Module, error) {
			return testModule(req.Title, false), nil
		},
	}
	o := NewOrchestrator(backend, nil)

	if _, err := o.Collect(context.Background(), Request{Topic: "Go"}); err == nil {
		t.Fatal("Collect succeeded on a failed run")
	}
}
