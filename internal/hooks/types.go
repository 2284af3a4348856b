package hooks

// Config is the top-level configuration for hooks loaded from .sitesmith.hooks.yml.
type Config struct {
	Version int         `yaml:"version"`
	Hooks   HooksConfig `yaml:"hooks"`
}

// HooksConfig contains all hook configurations.
type HooksConfig struct {
	PostBuild  *HookConfig `yaml:"post_build"`
	PostFix    *HookConfig `yaml:"post_fix"`
	PreDeploy  *HookConfig `yaml:"pre_deploy"`
	PostDeploy *HookConfig `yaml:"post_deploy"`
}

// HookConfig defines a single hook's configuration.
type HookConfig struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout"` // seconds, default 30
}

// Event names a lifecycle point a hook can attach to.
type Event string

const (
	PostBuild  Event = "post_build"
	PostFix    Event = "post_fix"
	PreDeploy  Event = "pre_deploy"
	PostDeploy Event = "post_deploy"
)

// ForEvent returns the hook configured for the given event, or nil.
func (h HooksConfig) ForEvent(event Event) *HookConfig {
	switch event {
	case PostBuild:
		return h.PostBuild
	case PostFix:
		return h.PostFix
	case PreDeploy:
		return h.PreDeploy
	case PostDeploy:
		return h.PostDeploy
	}
	return nil
}

// DefaultTimeout is the default timeout for hook execution in seconds.
const DefaultTimeout = 30
