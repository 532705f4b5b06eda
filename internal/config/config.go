package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config carries every path and identifier the installer works with. All
// idempotency decisions are made against the filesystem locations resolved
// here, never against in-memory state.
type Config struct {
	// InstallRoot is the per-user directory owning every installed artifact
	// except the service descriptor.
	InstallRoot string `mapstructure:"install_root"`

	// ServiceLabel is the unique service identifier registered with the
	// service manager and the basename of the descriptor file.
	ServiceLabel string `mapstructure:"service_label"`

	// LaunchAgentsDir is where the service manager expects descriptors.
	LaunchAgentsDir string `mapstructure:"launch_agents_dir"`

	// TargetArch is the canonical architecture the agent must run under.
	TargetArch string `mapstructure:"target_arch"`

	// PythonTool is the interpreter looked up on PATH to build the runtime
	// environment.
	PythonTool string `mapstructure:"python_tool"`

	// PythonRemediationURL is surfaced to the user when PythonTool is absent.
	PythonRemediationURL string `mapstructure:"python_remediation_url"`

	// APIBaseURL is the endpoint credential candidates are validated against.
	APIBaseURL string `mapstructure:"api_base_url"`

	// HelperName is the optional permission-broker binary searched for at
	// install time. Its absence never blocks installation.
	HelperName string `mapstructure:"helper_name"`

	// PayloadSource optionally overrides where the payload script is staged
	// from. Empty means "next to the installer executable".
	PayloadSource string `mapstructure:"payload_source"`

	// PinArch launches the agent through an architecture-pinning wrapper
	// when no helper is available.
	PinArch bool `mapstructure:"pin_arch"`
}

const (
	payloadScriptName = "starhop.py"
	credentialName    = "nasa_apod_key"
	recordName        = "install.json"
	venvDirName       = "venv"
	logDirName        = "logs"
	manifestName      = "requirements.txt"
)

// Load resolves configuration from defaults, an optional config file in the
// install root, and STARHOP_* environment variables, in increasing priority.
func Load() (*Config, error) {
	v := viper.New()

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultRoot := filepath.Join(home, ".starhop")
	defaultAgents := filepath.Join(home, ".starhop", "agents")
	if runtime.GOOS == "darwin" {
		defaultRoot = filepath.Join(home, "Library", "Application Support", "StarHop")
		defaultAgents = filepath.Join(home, "Library", "LaunchAgents")
	}

	v.SetDefault("install_root", defaultRoot)
	v.SetDefault("service_label", "com.starhop.agent")
	v.SetDefault("launch_agents_dir", defaultAgents)
	v.SetDefault("target_arch", "arm64")
	v.SetDefault("python_tool", "python3")
	v.SetDefault("python_remediation_url", "https://www.python.org/downloads/macos/")
	v.SetDefault("api_base_url", "https://api.nasa.gov/planetary/apod")
	v.SetDefault("helper_name", "starhop-helper")
	v.SetDefault("pin_arch", runtime.GOOS == "darwin")

	v.SetEnvPrefix("STARHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("starhop")
	v.SetConfigType("yaml")
	v.AddConfigPath(defaultRoot)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// CredentialPath is the single-line secret file, mode 0600.
func (c *Config) CredentialPath() string {
	return filepath.Join(c.InstallRoot, credentialName)
}

// RecordPath is the installation record location.
func (c *Config) RecordPath() string {
	return filepath.Join(c.InstallRoot, recordName)
}

// VenvPath is the isolated runtime environment directory.
func (c *Config) VenvPath() string {
	return filepath.Join(c.InstallRoot, venvDirName)
}

// LogDir holds the installer log and the agent's redirected stdout/stderr.
func (c *Config) LogDir() string {
	return filepath.Join(c.InstallRoot, logDirName)
}

// LogFilePath is the installer's own rotating log.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.LogDir(), "installer.log")
}

// AgentStdoutPath and AgentStderrPath are the descriptor redirection targets.
func (c *Config) AgentStdoutPath() string {
	return filepath.Join(c.LogDir(), "agent.out.log")
}

func (c *Config) AgentStderrPath() string {
	return filepath.Join(c.LogDir(), "agent.err.log")
}

// PayloadPath is where the payload script lives after staging.
func (c *Config) PayloadPath() string {
	return filepath.Join(c.InstallRoot, payloadScriptName)
}

// ManifestPath is where the embedded dependency manifest is staged.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.InstallRoot, manifestName)
}

// DescriptorPath is the service descriptor expected by the service manager.
func (c *Config) DescriptorPath() string {
	return filepath.Join(c.LaunchAgentsDir, c.ServiceLabel+".plist")
}
