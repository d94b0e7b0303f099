package gemini

import (
	"testing"

	"google.golang.org/genai"

	"github.com/kbukum/coursegen/course"
	"github.com/kbukum/coursegen/generate"
)

func hasRequired(s *genai.Schema, name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

func TestModuleSchemaBase(t *testing.T) {
	s := moduleSchema(generate.ModuleRequest{Format: course.FormatStandard})

	lesson := s.Properties["lessons"].Items
	if _, ok := lesson.Properties["video_script"]; ok {
		t.Error("base lesson schema includes video_script")
	}
	if _, ok := lesson.Properties["image_prompt"]; ok {
		t.Error("base lesson schema includes image_prompt")
	}
	if _, ok := s.Properties["worksheet"]; ok {
		t.Error("base module schema includes worksheet")
	}
	if !hasRequired(s, "quiz") {
		t.Error("quiz not required")
	}
}

func TestModuleSchemaOptionalFields(t *testing.T) {
	s := moduleSchema(generate.ModuleRequest{
		Format:           course.FormatPodcast,
		WithImagePrompts: true,
	})
	lesson := s.Properties["lessons"].Items
	if !hasRequired(lesson, "video_script") {
		t.Error("podcast lesson schema missing required video_script")
	}
	if !hasRequired(lesson, "image_prompt") {
		t.Error("image run lesson schema missing required image_prompt")
	}

	ws := moduleSchema(generate.ModuleRequest{Format: course.FormatWorkshop})
	if _, ok := ws.Properties["worksheet"]; !ok {
		t.Error("workshop module schema missing worksheet")
	}
	if !hasRequired(ws, "worksheet") {
		t.Error("workshop worksheet not required")
	}
}

func TestGroundingSources(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			GroundingMetadata: &genai.GroundingMetadata{
				GroundingChunks: []*genai.GroundingChunk{
					{Web: &genai.GroundingChunkWeb{URI: "https://a.example", Title: "A"}},
					{Web: &genai.GroundingChunkWeb{URI: "https://b.example", Title: "B"}},
					{Web: &genai.GroundingChunkWeb{URI: "https://a.example", Title: "A again"}},
					{Web: nil},
				},
			},
		}},
	}
	sources := groundingSources(resp)
	if len(sources) != 2 {
		t.Fatalf("sources = %d, want 2 after dedup", len(sources))
	}
	if sources[0].URL != "https://a.example" || sources[1].URL != "https://b.example" {
		t.Errorf("unexpected sources: %+v", sources)
	}
}

func TestShrinkBudget(t *testing.T) {
	cases := []struct {
		budget, attempt, want int
	}{
		{8192, 1, 8192},
		{8192, 2, 4096},
		{8192, 3, 2048},
		{8192, 4, 2048},
		{1024, 1, 2048},
	}
	for _, tc := range cases {
		if got := shrinkBudget(tc.budget, tc.attempt); got != tc.want {
			t.Errorf("shrinkBudget(%d, %d) = %d, want %d", tc.budget, tc.attempt, got, tc.want)
		}
	}
}
