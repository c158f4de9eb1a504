package cli

import (
	envparse "github.com/caarlos0/env/v11"
)

// baseEnv defines root CLI defaults sourced from LABCTL_* env vars.
type baseEnv struct {
	// ConfigPath is the lab.yaml path from LABCTL_CONFIG.
	ConfigPath string `env:"LABCTL_CONFIG"`
	// Namespace is the namespace override from LABCTL_NAMESPACE.
	Namespace string `env:"LABCTL_NAMESPACE"`
	// Release is the release override from LABCTL_RELEASE.
	Release string `env:"LABCTL_RELEASE"`
	// LogLevel is the logging level from LABCTL_LOG_LEVEL.
	LogLevel string `env:"LABCTL_LOG_LEVEL"`
}

// deployEnv captures LABCTL_* inputs for the deploy command.
type deployEnv struct {
	// WaitTimeout is the readiness poll budget from LABCTL_WAIT_TIMEOUT.
	WaitTimeout string `env:"LABCTL_WAIT_TIMEOUT"`
	// SkipEngineCheck disables the engine preflight from LABCTL_SKIP_ENGINE_CHECK.
	SkipEngineCheck bool `env:"LABCTL_SKIP_ENGINE_CHECK"`
	// NoForward disables port-forwarding from LABCTL_NO_FORWARD.
	NoForward bool `env:"LABCTL_NO_FORWARD"`
}

// parseEnv fills target from LABCTL_* env vars via caarlos0/env.
func parseEnv(target interface{}) error {
	return envparse.Parse(target)
}
