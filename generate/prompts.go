package generate

import (
	"fmt"
	"strings"

	"github.com/kbukum/coursegen/course"
)

// Prompt builders shared by all backends. Backends that support native
// structured output omit the JSON instruction block; the rest append it
// and decode with the codec package.

var difficultyGuidance = map[course.Difficulty]string{
	course.DifficultyBeginner:     "Assume no prior knowledge. Define every term on first use, favor everyday analogies, and keep each concept self-contained.",
	course.DifficultyIntermediate: "Assume working familiarity with the fundamentals. Skip introductory definitions and focus on practical application and common pitfalls.",
	course.DifficultyAdvanced:     "Assume deep experience. Cover edge cases, trade-offs, and internals; cite concrete scenarios rather than simplified examples.",
}

var formatGuidance = map[course.Format]string{
	course.FormatStandard:     "A self-paced online course. Lessons are written prose a learner reads on their own.",
	course.FormatBootcamp:     "An intensive bootcamp. Lessons are dense and exercise-driven, with explicit hands-on tasks the learner completes before moving on.",
	course.FormatAsynchronous: "A fully asynchronous video course. Every lesson needs a natural spoken video script alongside the written content.",
	course.FormatSynchronous:  "A live instructor-led class. Lessons read as facilitator notes with timed activities and discussion prompts.",
	course.FormatEmail:        "An email drip course. Each lesson is a standalone email: short, conversational, with one clear takeaway and a call to action.",
	course.FormatPodcast:      "An audio podcast series. Every lesson needs a conversational narration script alongside the written content; avoid references to visuals.",
	course.FormatWorkshop:     "A hands-on workshop. Lessons center on guided group exercises, and each module ends with a printable worksheet.",
	course.FormatBlended:      "A blended course mixing self-study and live sessions. Mark which parts are read ahead of time and which happen live.",
}

// FormatWantsVideoScripts reports whether lessons in this format carry a
// spoken script in addition to written content.
func FormatWantsVideoScripts(f course.Format) bool {
	return f == course.FormatAsynchronous || f == course.FormatPodcast
}

// FormatWantsWorksheet reports whether modules in this format carry a
// worksheet.
func FormatWantsWorksheet(f course.Format) bool {
	return f == course.FormatWorkshop || f == course.FormatBootcamp
}

// OutlinePrompt renders the outline generation prompt.
func OutlinePrompt(req OutlineRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert curriculum designer. Design a course on the topic %q.\n\n", req.Topic)
	fmt.Fprintf(&b, "Audience level: %s. %s\n", req.Difficulty, difficultyGuidance[req.Difficulty])
	fmt.Fprintf(&b, "Delivery format: %s. %s\n\n", req.Format, formatGuidance[req.Format])
	b.WriteString("Produce a course title, a two to three sentence description, four to six learning objectives, and an ordered list of three to seven module titles. Module titles must progress logically from foundations to mastery and must not overlap.\n")
	if req.Research != "" {
		b.WriteString("\nGround the outline in the following research notes:\n\n")
		b.WriteString(req.Research)
		b.WriteString("\n")
	}
	return b.String()
}

// ModulePrompt renders the module generation prompt. The full outline
// gives the model the shape of the whole course; the covered list tells
// it what has already been taught so it builds on, rather than repeats,
// earlier modules.
func ModulePrompt(req ModuleRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert course author writing one module of a course on %q.\n\n", req.Topic)
	fmt.Fprintf(&b, "Audience level: %s. %s\n", req.Difficulty, difficultyGuidance[req.Difficulty])
	fmt.Fprintf(&b, "Delivery format: %s. %s\n\n", req.Format, formatGuidance[req.Format])
	fmt.Fprintf(&b, "Write the module titled %q.\n\n", req.Title)
	if len(req.AllTitles) > 0 {
		b.WriteString("Course outline, in order:\n")
		for i, t := range req.AllTitles {
			fmt.Fprintf(&b, "%d. %s\n", i+1, t)
		}
		b.WriteString("\n")
	}
	if len(req.CoveredTitles) > 0 {
		b.WriteString("Already covered in earlier modules, build on this material and do not repeat it:\n")
		for _, t := range req.CoveredTitles {
			fmt.Fprintf(&b, "- %s\n", t)
		}
		b.WriteString("\n")
	}
	b.WriteString("The module needs a short description, three to five lessons of at least 250 words each, and a quiz of three to five multiple-choice questions testing the module's material.\n")
	if FormatWantsVideoScripts(req.Format) {
		b.WriteString("Every lesson also needs a natural spoken script covering the same material as the written content.\n")
	}
	if FormatWantsWorksheet(req.Format) {
		b.WriteString("The module also needs a worksheet with practice exercises a learner completes offline.\n")
	}
	if req.WithImagePrompts {
		b.WriteString("For each lesson, include a one-sentence prompt describing an educational illustration for the lesson. The prompt must describe a concrete visual scene with no text overlays.\n")
	}
	if req.Research != "" {
		b.WriteString("\nGround the content in the following research notes where relevant:\n\n")
		b.WriteString(req.Research)
		b.WriteString("\n")
	}
	return b.String()
}

// OutlineJSONInstructions is appended by backends without native
// structured output. The field names match course.Outline's JSON tags.
func OutlineJSONInstructions() string {
	return `
Respond with a single JSON object and nothing else. No markdown fences, no commentary. Shape:
{
  "title": "course title",
  "description": "two to three sentences",
  "learning_objectives": ["objective", ...],
  "module_titles": ["module title", ...]
}
module_titles must have three to seven entries.`
}

// ModuleJSONInstructions is appended by backends without native
// structured output. Optional fields are requested only when the format
// or run asks for them.
func ModuleJSONInstructions(req ModuleRequest) string {
	var b strings.Builder
	b.WriteString(`
Respond with a single JSON object and nothing else. No markdown fences, no commentary. Shape:
{
  "title": "module title",
  "description": "one to two sentences",
  "lessons": [
    {
      "title": "lesson title",
      "content": "at least 250 words of lesson content"`)
	if FormatWantsVideoScripts(req.Format) {
		b.WriteString(`,
      "video_script": "spoken script for this lesson"`)
	}
	if req.WithImagePrompts {
		b.WriteString(`,
      "image_prompt": "one-sentence illustration prompt"`)
	}
	b.WriteString(`
    }
  ],
  "quiz": {
    "title": "quiz title",
    "questions": [
      {
        "question_text": "the question",
        "options": ["A", "B", "C", "D"],
        "correct_answer": "must match one option exactly",
        "explanation": "why the answer is correct"
      }
    ]
  }`)
	if FormatWantsWorksheet(req.Format) {
		b.WriteString(`,
  "worksheet": {"title": "worksheet title", "content": "practice exercises"}`)
	}
	b.WriteString(`
}
Each question must have exactly 4 options.`)
	return b.String()
}
