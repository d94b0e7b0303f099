package course

// Step identifies the pipeline stage an update refers to.
type Step string

const (
	StepResearching       Step = "researching"
	StepOutlining         Step = "outlining"
	StepGeneratingModules Step = "generating_modules"
	StepGeneratingImages  Step = "generating_images"
	StepDone              Step = "done"
)

// Phase distinguishes stage-started from stage-completed events. The two are
// separate kinds rather than being inferred from payload presence.
type Phase string

const (
	PhaseStarted   Phase = "started"
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
)

// GenerationUpdate is the sole unit of progress communication for a run.
// Outline is set on the outlining completed update, Module on each module
// completed update. Error is set only on failed updates, which terminate
// the stream.
type GenerationUpdate struct {
	Step    Step   `json:"step"`
	Phase   Phase  `json:"phase"`
	Message string `json:"message"`

	ModuleIndex int    `json:"module_index,omitempty"`
	ModuleTotal int    `json:"module_total,omitempty"`
	Lesson      string `json:"lesson,omitempty"`

	Research string   `json:"research,omitempty"`
	Outline  *Outline `json:"outline,omitempty"`
	Module   *Module  `json:"module,omitempty"`
	Error    string   `json:"error,omitempty"`
}
