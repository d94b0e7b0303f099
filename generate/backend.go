package generate

import (
	"context"

	"github.com/kbukum/coursegen/catalog"
	"github.com/kbukum/coursegen/course"
	"github.com/kbukum/coursegen/provider"
)

// OutlineRequest carries everything a backend needs to produce a course
// outline. Research is optional grounding text gathered beforehand; when
// present the backend folds it into the prompt.
type OutlineRequest struct {
	Topic      string
	Difficulty course.Difficulty
	Format     course.Format
	Model      string
	Research   string
}

// ModuleRequest asks the backend for the full content of one module.
// AllTitles is the ordered outline so the model sees the whole arc,
// CoveredTitles is the prefix already generated so it does not repeat
// earlier material. WithImagePrompts asks for an illustration prompt per
// lesson.
type ModuleRequest struct {
	Topic            string
	Difficulty       course.Difficulty
	Format           course.Format
	Model            string
	Title            string
	AllTitles        []string
	CoveredTitles    []string
	Research         string
	WithImagePrompts bool
}

// ResearchResult is the output of a grounded research pass: synthesized
// notes plus the web sources they were drawn from.
type ResearchResult struct {
	Text    string
	Sources []course.Source
}

// Backend is implemented by each model provider adapter. Adapters own
// their retry policy; an error returned here is already final.
type Backend interface {
	provider.Provider

	// GenerateOutline produces the course skeleton.
	GenerateOutline(ctx context.Context, req OutlineRequest) (*course.Outline, error)

	// GenerateModule produces one module with lessons and a quiz.
	GenerateModule(ctx context.Context, req ModuleRequest) (*course.Module, error)

	// Models lists the models this backend can serve, filtered to those
	// suitable for course generation.
	Models(ctx context.Context) ([]catalog.ModelInfo, error)

	// SupportsImages reports whether GenerateImage is usable.
	SupportsImages() bool

	// SupportsSearch reports whether the backend can ground generation
	// in web search results.
	SupportsSearch() bool
}

// ImageGenerator is implemented by backends that can render lesson
// illustrations. The returned string is base64-encoded image data.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Researcher is implemented by backends that can run a standalone
// search-grounded research pass before outlining.
type Researcher interface {
	Research(ctx context.Context, topic string) (*ResearchResult, error)
}
