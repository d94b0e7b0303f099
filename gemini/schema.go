package gemini

import (
	"google.golang.org/genai"

	"github.com/kbukum/coursegen/generate"
)

// Response schemas for native structured output. Property names match
// the JSON tags on the course types so decoded output maps directly.

func outlineSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":       {Type: genai.TypeString},
			"description": {Type: genai.TypeString},
			"learning_objectives": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"module_titles": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Ordered module titles, three to seven entries",
			},
		},
		Required: []string{"title", "description", "learning_objectives", "module_titles"},
	}
}

// moduleSchema builds the module response schema. Lesson fields beyond
// title and content exist only when the run asks for them, keeping the
// model from inventing scripts or prompts nobody requested.
func moduleSchema(req generate.ModuleRequest) *genai.Schema {
	lesson := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":   {Type: genai.TypeString},
			"content": {Type: genai.TypeString, Description: "At least 250 words"},
		},
		Required: []string{"title", "content"},
	}
	if generate.FormatWantsVideoScripts(req.Format) {
		lesson.Properties["video_script"] = &genai.Schema{
			Type: genai.TypeString, Description: "Spoken script covering the lesson",
		}
		lesson.Required = append(lesson.Required, "video_script")
	}
	if req.WithImagePrompts {
		lesson.Properties["image_prompt"] = &genai.Schema{
			Type: genai.TypeString, Description: "One-sentence illustration prompt",
		}
		lesson.Required = append(lesson.Required, "image_prompt")
	}

	question := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"question_text": {Type: genai.TypeString},
			"options": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Exactly four options",
			},
			"correct_answer": {Type: genai.TypeString, Description: "Must match one option exactly"},
			"explanation":    {Type: genai.TypeString},
		},
		Required: []string{"question_text", "options", "correct_answer"},
	}

	mod := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":       {Type: genai.TypeString},
			"description": {Type: genai.TypeString},
			"lessons":     {Type: genai.TypeArray, Items: lesson},
			"quiz": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"title":     {Type: genai.TypeString},
					"questions": {Type: genai.TypeArray, Items: question},
				},
				Required: []string{"title", "questions"},
			},
		},
		Required: []string{"title", "description", "lessons", "quiz"},
	}
	if generate.FormatWantsWorksheet(req.Format) {
		mod.Properties["worksheet"] = &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title":   {Type: genai.TypeString},
				"content": {Type: genai.TypeString},
			},
			Required: []string{"title", "content"},
		}
		mod.Required = append(mod.Required, "worksheet")
	}
	return mod
}
