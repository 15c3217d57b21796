package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	ConfigDirName  = ".config/pyrev"
	ConfigFileName = "config.yml"

	// EnvPrefix is the prefix for all pyrev environment variables
	// (PYREV_PROVIDER, PYREV_MODEL, PYREV_STRICTNESS, ...).
	EnvPrefix = "PYREV"
)

// Strictness profiles accepted by Validate and the prompt templates.
const (
	StrictnessNormal = "normal"
	StrictnessHarsh  = "harsh"
	StrictnessStrict = "strict"
)

// Test frameworks the generator knows how to scaffold.
const (
	FrameworkPytest   = "pytest"
	FrameworkUnittest = "unittest"
)

// Config contains the entire cli dependencies. It is resolved once at
// invocation start and passed by value to every component; nothing reads
// ambient environment state after construction.
type Config struct {
	Version string
	Viper   *viper.Viper
	Debug   bool

	// Model settings
	Provider  string
	Model     string
	MaxTokens int
	Timeout   time.Duration

	// Review settings
	Strictness       string
	SecurityChecks   bool
	PerformanceCheck bool
	BestPractices    bool
	MaxPromptTokens  int

	// Test generation settings
	TestFramework      string
	GenerateDocstrings bool
	TestDir            string

	// io writers useful for testing
	InReader  io.Reader
	OutWriter io.Writer
	ErrWriter io.Writer
}

// NewDefaultConfig creates a new default config, layering the config file
// (~/.config/pyrev/config.yml, when present) and PYREV_* environment
// variables over the built-in defaults.
func NewDefaultConfig() Config {
	v := viper.New()
	v.SetDefault("provider", "anthropic")
	v.SetDefault("model", "")
	v.SetDefault("max_tokens", 8000)
	v.SetDefault("timeout", "120s")
	v.SetDefault("strictness", StrictnessHarsh)
	v.SetDefault("checks.security", true)
	v.SetDefault("checks.performance", true)
	v.SetDefault("checks.best_practices", true)
	v.SetDefault("max_prompt_tokens", 80000)
	v.SetDefault("test_framework", FrameworkPytest)
	v.SetDefault("generate_docstrings", true)
	v.SetDefault("test_dir", "tests")

	if path, err := FilePath(); err == nil {
		v.SetConfigFile(path)
		// Config file not found is OK, we use defaults
		_ = v.ReadInConfig()
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return Config{
		Version:            "0.1.0",
		Viper:              v,
		Debug:              false,
		Provider:           v.GetString("provider"),
		Model:              v.GetString("model"),
		MaxTokens:          v.GetInt("max_tokens"),
		Timeout:            v.GetDuration("timeout"),
		Strictness:         v.GetString("strictness"),
		SecurityChecks:     v.GetBool("checks.security"),
		PerformanceCheck:   v.GetBool("checks.performance"),
		BestPractices:      v.GetBool("checks.best_practices"),
		MaxPromptTokens:    v.GetInt("max_prompt_tokens"),
		TestFramework:      v.GetString("test_framework"),
		GenerateDocstrings: v.GetBool("generate_docstrings"),
		TestDir:            v.GetString("test_dir"),
		InReader:           os.Stdin,
		OutWriter:          os.Stdout,
		ErrWriter:          os.Stderr,
	}
}

// Validate checks the resolved configuration values.
func (c Config) Validate() error {
	switch c.Strictness {
	case StrictnessNormal, StrictnessHarsh, StrictnessStrict:
	default:
		return fmt.Errorf("invalid strictness %q (want normal, harsh or strict)", c.Strictness)
	}

	switch c.TestFramework {
	case FrameworkPytest, FrameworkUnittest:
	default:
		return fmt.Errorf("invalid test_framework %q (want pytest or unittest)", c.TestFramework)
	}

	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.MaxPromptTokens <= 0 {
		return fmt.Errorf("max_prompt_tokens must be positive, got %d", c.MaxPromptTokens)
	}

	return nil
}

// DirPath returns the path of the pyrev config folder.
func DirPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to read home directory: %w", err)
	}
	return filepath.Join(home, ConfigDirName), nil
}

// FilePath returns the full path of the pyrev config file.
func FilePath() (string, error) {
	dir, err := DirPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}
