// Package config builds the rigstrap configuration from hardcoded defaults
// overridden by RIGSTRAP_* environment variables. There is no configuration
// file; the environment is the whole override surface.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides, so the
// install directory is overridden with RIGSTRAP_INSTALL_DIR and so on.
const EnvPrefix = "RIGSTRAP"

// Config holds every tunable parameter of a provisioning run. It is
// constructed once at startup and passed to the components; nothing reads
// ambient environment variables after this point.
type Config struct {
	// InstallDir is where the conda toolchain is installed.
	InstallDir string `mapstructure:"install_dir"`
	// EnvName is the conda environment to create and install into.
	EnvName string `mapstructure:"env_name"`
	// PythonVersion pins the environment's Python runtime.
	PythonVersion string `mapstructure:"python_version"`
	// WorkspaceDir is the parent directory for managed repositories.
	WorkspaceDir string `mapstructure:"workspace_dir"`
	// ToolkitRepo and ToolkitRef pin the speech toolkit checkout.
	ToolkitRepo string `mapstructure:"toolkit_repo"`
	ToolkitRef  string `mapstructure:"toolkit_ref"`
	// ExamplesRepo and ExamplesRef pin the examples checkout.
	ExamplesRepo string `mapstructure:"examples_repo"`
	ExamplesRef  string `mapstructure:"examples_ref"`
	// Target selects the accelerator package variant (cpu, cuda, npu).
	Target string `mapstructure:"target"`
	// FrameLength is injected into the toolkit's pipeline constructor.
	FrameLength int `mapstructure:"frame_length"`
	// HubToken authenticates the model-hub login non-interactively.
	// Empty means interactive login.
	HubToken string `mapstructure:"hub_token"`
}

// Load builds the configuration from defaults and environment overrides.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("install_dir", "~/miniforge3")
	v.SetDefault("env_name", "speech")
	v.SetDefault("python_version", "3.10")
	v.SetDefault("workspace_dir", "~/workspace")
	v.SetDefault("toolkit_repo", "https://github.com/rigstrap/speech-toolkit.git")
	v.SetDefault("toolkit_ref", "v1.4.0")
	v.SetDefault("examples_repo", "https://github.com/rigstrap/speech-examples.git")
	v.SetDefault("examples_ref", "main")
	v.SetDefault("target", "cpu")
	v.SetDefault("frame_length", 512)
	v.SetDefault("hub_token", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks configuration invariants that would otherwise surface as
// confusing step failures mid-run.
func (c Config) Validate() error {
	if c.EnvName == "" {
		return fmt.Errorf("env_name must not be empty")
	}
	if c.FrameLength <= 0 {
		return fmt.Errorf("frame_length must be positive, got %d", c.FrameLength)
	}
	switch c.Target {
	case "cpu", "cuda", "npu":
	default:
		return fmt.Errorf("target must be one of cpu, cuda, npu; got %q", c.Target)
	}
	return nil
}
