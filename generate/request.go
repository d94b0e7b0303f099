package generate

import (
	"fmt"
	"strings"

	"github.com/kbukum/coursegen/course"
	"github.com/kbukum/coursegen/errors"
)

// Request describes one course generation run.
type Request struct {
	// Topic is the subject of the course. Required.
	Topic string `json:"topic"`

	// Difficulty defaults to intermediate when empty.
	Difficulty course.Difficulty `json:"difficulty"`

	// Format defaults to the standard format when empty.
	Format course.Format `json:"format"`

	// Model overrides the backend's default model when set.
	Model string `json:"model"`

	// GenerateImages asks for per-lesson illustrations when the backend
	// supports them.
	GenerateImages bool `json:"generateImages"`

	// UseSearch asks for a web-grounded research pass when the backend
	// supports it.
	UseSearch bool `json:"useSearch"`
}

// Normalize trims the topic and fills defaulted fields, then validates.
func (r *Request) Normalize() error {
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Topic == "" {
		return errors.InvalidInput("topic", "topic is required")
	}
	if r.Difficulty == "" {
		r.Difficulty = course.DifficultyIntermediate
	}
	if !r.Difficulty.Valid() {
		return errors.InvalidInput("difficulty", fmt.Sprintf("unknown difficulty %q", r.Difficulty))
	}
	if r.Format == "" {
		r.Format = course.FormatStandard
	}
	if !r.Format.Valid() {
		return errors.InvalidInput("format", fmt.Sprintf("unknown format %q", r.Format))
	}
	return nil
}
