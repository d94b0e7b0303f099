package course

import (
	"fmt"
	"strings"
)

// Difficulty is the target audience level for a generated course.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Format selects the delivery style a course is written for.
type Format string

const (
	FormatStandard     Format = "standard"
	FormatBootcamp     Format = "bootcamp"
	FormatAsynchronous Format = "asynchronous"
	FormatSynchronous  Format = "synchronous"
	FormatEmail        Format = "email"
	FormatPodcast      Format = "podcast"
	FormatWorkshop     Format = "workshop"
	FormatBlended      Format = "blended"
)

// Valid reports whether f is a known course format.
func (f Format) Valid() bool {
	switch f {
	case FormatStandard, FormatBootcamp, FormatAsynchronous, FormatSynchronous,
		FormatEmail, FormatPodcast, FormatWorkshop, FormatBlended:
		return true
	}
	return false
}

// Source is a citation attached to an outline by search grounding.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Outline is the top-level course skeleton generated before any module
// content. It is immutable after creation except for attaching Sources.
type Outline struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	LearningObjectives []string `json:"learning_objectives"`
	ModuleTitles       []string `json:"module_titles"`
	Sources            []Source `json:"sources,omitempty"`
}

// Module title count bounds for a valid outline.
const (
	minModuleTitles = 3
	maxModuleTitles = 7
)

// Validate checks the invariants an outline must satisfy before any module
// generation may start. An outline whose module titles fall outside the
// 3 to 7 band fails the whole run.
func (o *Outline) Validate() error {
	if strings.TrimSpace(o.Title) == "" {
		return fmt.Errorf("outline: title is empty")
	}
	if n := len(o.ModuleTitles); n < minModuleTitles || n > maxModuleTitles {
		return fmt.Errorf("outline: %d module titles, want %d to %d", n, minModuleTitles, maxModuleTitles)
	}
	for i, t := range o.ModuleTitles {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("outline: module title %d is empty", i)
		}
	}
	return nil
}

// AttachSources merges citations into the outline, deduplicated by URL.
// Entries with an empty URL are dropped.
func (o *Outline) AttachSources(sources []Source) {
	seen := make(map[string]bool, len(o.Sources))
	for _, s := range o.Sources {
		seen[s.URL] = true
	}
	for _, s := range sources {
		if s.URL == "" || seen[s.URL] {
			continue
		}
		seen[s.URL] = true
		o.Sources = append(o.Sources, s)
	}
}

// Lesson is a single unit of module content. Content is markdown prose.
// VideoScript, ImagePrompt and ImageBase64 are best-effort extras; their
// absence is not an error. ImageBase64 is only set after a successful
// image-generation step.
type Lesson struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	VideoScript string `json:"video_script,omitempty"`
	ImagePrompt string `json:"image_prompt,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

// Question is one quiz question. CorrectAnswer must equal one of the four
// options verbatim.
type Question struct {
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Quiz is an optional per-module assessment.
type Quiz struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Worksheet is an optional printable exercise asset.
type Worksheet struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ResourceSheet is an optional further-reading asset.
type ResourceSheet struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Module is one structured content unit of a course. Its Title always equals
// the corresponding outline module title; the generator enforces this rather
// than trusting model output.
type Module struct {
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Lessons       []Lesson       `json:"lessons"`
	Quiz          *Quiz          `json:"quiz,omitempty"`
	Worksheet     *Worksheet     `json:"worksheet,omitempty"`
	ResourceSheet *ResourceSheet `json:"resource_sheet,omitempty"`
}

// Validate checks the invariants a module must satisfy before it is yielded
// to the caller. Every delivered lesson has non-empty content.
func (m *Module) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("module: title is empty")
	}
	if len(m.Lessons) == 0 {
		return fmt.Errorf("module %q: no lessons", m.Title)
	}
	for i, l := range m.Lessons {
		if strings.TrimSpace(l.Title) == "" {
			return fmt.Errorf("module %q: lesson %d has no title", m.Title, i)
		}
		if strings.TrimSpace(l.Content) == "" {
			return fmt.Errorf("module %q: lesson %q has empty content", m.Title, l.Title)
		}
	}
	if m.Quiz != nil {
		if err := m.Quiz.validate(); err != nil {
			return fmt.Errorf("module %q: %w", m.Title, err)
		}
	}
	return nil
}

func (q *Quiz) validate() error {
	if len(q.Questions) == 0 {
		return fmt.Errorf("quiz %q: no questions", q.Title)
	}
	for i := range q.Questions {
		if err := q.Questions[i].normalize(); err != nil {
			return fmt.Errorf("quiz %q: question %d: %w", q.Title, i, err)
		}
	}
	return nil
}

// normalize enforces the correct-answer invariant. A trimmed,
// case-insensitive match against an option is rewritten to that option
// verbatim; no match at all makes the question invalid.
func (qu *Question) normalize() error {
	if len(qu.Options) != 4 {
		return fmt.Errorf("expected 4 options, got %d", len(qu.Options))
	}
	want := strings.TrimSpace(strings.ToLower(qu.CorrectAnswer))
	for _, opt := range qu.Options {
		if strings.TrimSpace(strings.ToLower(opt)) == want {
			qu.CorrectAnswer = opt
			return nil
		}
	}
	return fmt.Errorf("correct answer %q matches no option", qu.CorrectAnswer)
}

// WordCount returns the number of whitespace-separated words in a lesson's
// content. Used to report lessons that fall below the prompt's word floor.
func (l *Lesson) WordCount() int {
	return len(strings.Fields(l.Content))
}

// Course is a fully assembled generation result.
type Course struct {
	Topic      string     `json:"topic"`
	Difficulty Difficulty `json:"difficulty"`
	Format     Format     `json:"format"`
	Outline    Outline    `json:"outline"`
	Modules    []Module   `json:"modules"`
}
