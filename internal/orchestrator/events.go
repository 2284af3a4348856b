package orchestrator

// Stages of a run, used in progress events.
const (
	StagePlan   = "plan"
	StageBuild  = "build"
	StageFix    = "fix"
	StageDeploy = "deploy"
)

// Event is one observable step of a build or fix run. The engine emits one
// per round plus terminal events; the TUI and the headless printer both
// consume them, as does the HTTP stream.
type Event struct {
	Stage   string `json:"stage"`
	Round   int    `json:"round,omitempty"`
	Action  string `json:"action,omitempty"` // Fix action name
	Target  string `json:"target,omitempty"` // File the round touched
	Done    int    `json:"done,omitempty"`   // Plan entries completed
	Total   int    `json:"total,omitempty"`  // Plan entries overall
	Message string `json:"message"`
	Diff    string `json:"diff,omitempty"` // Unified diff for fix rewrites
	Err     string `json:"error,omitempty"`
}

// Emitter receives progress events. Implementations must not block for long;
// the loop waits for each Emit to return before continuing.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(Event)

// Emit calls the function.
func (f EmitterFunc) Emit(e Event) { f(e) }
