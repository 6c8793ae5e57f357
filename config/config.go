package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/lineasoftware/boredom/internal/bundler"
)

// DefaultConfigFile is looked up in the working directory
const DefaultConfigFile = "boredom.yaml"

// EnvPrefix prefixes every environment override, e.g. BOREDOM_BUILD_TARGET
const EnvPrefix = "BOREDOM_"

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error in field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return "no validation errors"
	}

	var messages []string
	for _, err := range errs {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

func (errs ValidationErrors) HasErrors() bool {
	return len(errs) > 0
}

// ConfigLoadOptions provides options for loading configuration
type ConfigLoadOptions struct {
	Path              string
	AllowMissing      bool
	ValidateStructure bool
	ApplyDefaults     bool
	LoadEnv           bool // read .env next to the config and BOREDOM_* overrides
	Quiet             bool
}

// DefaultLoadOptions returns sensible defaults for config loading
func DefaultLoadOptions() ConfigLoadOptions {
	return ConfigLoadOptions{
		Path:              DefaultConfigFile,
		AllowMissing:      false,
		ValidateStructure: true,
		ApplyDefaults:     true,
		LoadEnv:           true,
		Quiet:             false,
	}
}

// ConfigManager handles configuration loading, validation, and management
type ConfigManager struct {
	options ConfigLoadOptions
}

// NewConfigManager creates a new configuration manager
func NewConfigManager(options ConfigLoadOptions) *ConfigManager {
	return &ConfigManager{
		options: options,
	}
}

// LoadConfig loads and validates the configuration
func (cm *ConfigManager) LoadConfig() (*ProjectConfig, error) {
	return cm.LoadConfigFromPath(cm.options.Path)
}

// LoadConfigFromPath loads configuration from a specific path
func (cm *ConfigManager) LoadConfigFromPath(path string) (*ProjectConfig, error) {
	var config ProjectConfig

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if !cm.options.AllowMissing {
			return nil, fmt.Errorf("configuration file not found: %s\n\nAre you in a boredom project directory?\nRun 'boredom config init' to create one", path)
		}
		if !cm.options.Quiet {
			fmt.Printf("⚠️  Configuration file not found at %s, using defaults\n", path)
		}
		config = *DefaultConfig(filepath.Base(filepath.Dir(absPath(path))))
	case err != nil:
		return nil, fmt.Errorf("failed to read configuration file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %s: %w\n\nPlease check your YAML syntax", path, err)
		}
	}

	if cm.options.LoadEnv {
		if err := cm.applyEnv(&config, filepath.Dir(path)); err != nil {
			return nil, err
		}
	}

	if cm.options.ApplyDefaults {
		cm.applyDefaults(&config)
	}

	if cm.options.ValidateStructure {
		if errs := cm.validateConfig(&config); errs.HasErrors() {
			return nil, fmt.Errorf("configuration validation failed:\n%s", cm.formatValidationErrors(errs))
		}
	}

	config.path = absPath(path)
	return &config, nil
}

// applyEnv loads an optional .env file and applies BOREDOM_* overrides.
// Variables already set in the environment win over the .env file.
func (cm *ConfigManager) applyEnv(config *ProjectConfig, dir string) error {
	dotenv := filepath.Join(dir, ".env")
	if _, err := os.Stat(dotenv); err == nil {
		if err := godotenv.Load(dotenv); err != nil {
			return fmt.Errorf("failed to load %s: %w", dotenv, err)
		}
	}

	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}

// validateConfig performs validation on the configuration
func (cm *ConfigManager) validateConfig(config *ProjectConfig) ValidationErrors {
	var errors ValidationErrors

	if config.Name == "" {
		errors = append(errors, ValidationError{
			Field:   "name",
			Value:   config.Name,
			Message: "project name cannot be empty",
		})
	}

	if _, err := semver.NewVersion(config.Version); err != nil {
		errors = append(errors, ValidationError{
			Field:   "version",
			Value:   config.Version,
			Message: "version must be a semantic version",
		})
	}

	if config.Scripts.Root == "" {
		errors = append(errors, ValidationError{
			Field:   "scripts.root",
			Value:   config.Scripts.Root,
			Message: "scripts root cannot be empty",
		})
	}

	if len(config.Scripts.Extensions) == 0 {
		errors = append(errors, ValidationError{
			Field:   "scripts.extensions",
			Value:   config.Scripts.Extensions,
			Message: "at least one script extension is required",
		})
	}
	for _, ext := range config.Scripts.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errors = append(errors, ValidationError{
				Field:   "scripts.extensions",
				Value:   ext,
				Message: "extensions must start with a dot",
			})
		}
	}

	for _, pattern := range config.Scripts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			errors = append(errors, ValidationError{
				Field:   "scripts.exclude",
				Value:   pattern,
				Message: "invalid glob pattern",
			})
		}
	}

	if config.Build.OutputDir == "" {
		errors = append(errors, ValidationError{
			Field:   "build.output_dir",
			Value:   config.Build.OutputDir,
			Message: "build output directory cannot be empty",
		})
	}

	scratch := filepath.Clean(config.Build.ScratchDir)
	if config.Build.ScratchDir == "" || scratch == "." || scratch == filepath.Clean(config.Build.OutputDir) || scratch == filepath.Clean(config.Scripts.Root) {
		errors = append(errors, ValidationError{
			Field:   "build.scratch_dir",
			Value:   config.Build.ScratchDir,
			Message: "scratch directory must be a dedicated directory, it is deleted after every build",
		})
	}

	if _, err := bundler.ParseTarget(config.Build.Target); err != nil {
		errors = append(errors, ValidationError{
			Field:   "build.target",
			Value:   config.Build.Target,
			Message: err.Error(),
		})
	}

	if config.Tampermonkey.Output == "" {
		errors = append(errors, ValidationError{
			Field:   "tampermonkey.output",
			Value:   config.Tampermonkey.Output,
			Message: "output file name cannot be empty",
		})
	}

	if len(config.Tampermonkey.Match) == 0 {
		errors = append(errors, ValidationError{
			Field:   "tampermonkey.match",
			Value:   config.Tampermonkey.Match,
			Message: "at least one @match pattern is required",
		})
	}

	if !slices.Contains(ValidRunAt, config.Tampermonkey.RunAt) {
		errors = append(errors, ValidationError{
			Field:   "tampermonkey.run_at",
			Value:   config.Tampermonkey.RunAt,
			Message: fmt.Sprintf("unsupported run-at '%s', valid options are: %s", config.Tampermonkey.RunAt, strings.Join(ValidRunAt, ", ")),
		})
	}

	if config.Plain.DataFile == "" {
		errors = append(errors, ValidationError{
			Field:   "plain.data_file",
			Value:   config.Plain.DataFile,
			Message: "scripts data file name cannot be empty",
		})
	}

	if config.Dev.Port <= 0 || config.Dev.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "dev.port",
			Value:   config.Dev.Port,
			Message: "port must be between 1 and 65535",
		})
	}

	if config.Dev.Debounce < 0 {
		errors = append(errors, ValidationError{
			Field:   "dev.debounce",
			Value:   config.Dev.Debounce,
			Message: "debounce cannot be negative",
		})
	}

	return errors
}

// applyDefaults sets default values for missing configuration fields
func (cm *ConfigManager) applyDefaults(config *ProjectConfig) {
	defaults := DefaultConfig(config.Name)

	if config.Name == "" {
		config.Name = defaults.Name
	}
	if config.Version == "" {
		config.Version = defaults.Version
	}
	if config.License == "" {
		config.License = defaults.License
	}
	if config.Namespace == "" {
		config.Namespace = defaults.Namespace
	}
	if config.Description == "" {
		config.Description = defaults.Description
	}

	if config.Scripts.Root == "" {
		config.Scripts.Root = defaults.Scripts.Root
	}
	if len(config.Scripts.Extensions) == 0 {
		config.Scripts.Extensions = defaults.Scripts.Extensions
	}
	if config.Scripts.Exclude == nil {
		config.Scripts.Exclude = defaults.Scripts.Exclude
	}
	if config.Scripts.Aliases == nil {
		config.Scripts.Aliases = defaults.Scripts.Aliases
	}

	if config.Build.OutputDir == "" {
		config.Build.OutputDir = defaults.Build.OutputDir
	}
	if config.Build.ScratchDir == "" {
		config.Build.ScratchDir = defaults.Build.ScratchDir
	}
	if config.Build.Target == "" {
		config.Build.Target = defaults.Build.Target
	}
	if config.Build.Minify == nil {
		config.Build.Minify = defaults.Build.Minify
	}

	if config.Tampermonkey.Output == "" {
		config.Tampermonkey.Output = defaults.Tampermonkey.Output
	}
	if len(config.Tampermonkey.Match) == 0 {
		config.Tampermonkey.Match = defaults.Tampermonkey.Match
	}
	if config.Tampermonkey.Grants == nil {
		config.Tampermonkey.Grants = defaults.Tampermonkey.Grants
	}
	if config.Tampermonkey.RunAt == "" {
		config.Tampermonkey.RunAt = defaults.Tampermonkey.RunAt
	}

	if config.Plain.DataFile == "" {
		config.Plain.DataFile = defaults.Plain.DataFile
	}

	if config.Dev.Port == 0 {
		config.Dev.Port = defaults.Dev.Port
	}
	if config.Dev.Debounce == 0 {
		config.Dev.Debounce = defaults.Dev.Debounce
	}
}

// formatValidationErrors formats validation errors in a user-friendly way
func (cm *ConfigManager) formatValidationErrors(errors ValidationErrors) string {
	var lines []string
	for i, err := range errors {
		lines = append(lines, fmt.Sprintf("  %d. %s", i+1, err.Error()))
	}
	return strings.Join(lines, "\n")
}

// GetConfigInfo returns information about the configuration at path
func GetConfigInfo(path string) (*ConfigInfo, error) {
	cm := NewConfigManager(DefaultLoadOptions())
	config, err := cm.LoadConfigFromPath(path)
	if err != nil {
		return nil, err
	}

	return &ConfigInfo{
		Path:         config.Path(),
		ProjectName:  config.Name,
		Version:      config.Version,
		ScriptsRoot:  config.Scripts.Root,
		Extensions:   config.Scripts.Extensions,
		OutputDir:    config.Build.OutputDir,
		Target:       config.Build.Target,
		Minify:       config.Build.MinifyEnabled(),
		UserScript:   config.UserScriptPath(),
		MenuTemplate: config.Tampermonkey.MenuTemplate,
		DevPort:      config.Dev.Port,
	}, nil
}

// ConfigInfo contains summary information about a configuration
type ConfigInfo struct {
	Path         string
	ProjectName  string
	Version      string
	ScriptsRoot  string
	Extensions   []string
	OutputDir    string
	Target       string
	Minify       bool
	UserScript   string
	MenuTemplate string
	DevPort      int
}

// String returns a formatted string representation of config info
func (info *ConfigInfo) String() string {
	menu := info.MenuTemplate
	if menu == "" {
		menu = "built-in"
	}

	var lines []string
	lines = append(lines, "📋 Configuration Summary")
	lines = append(lines, fmt.Sprintf("   Path: %s", info.Path))
	lines = append(lines, fmt.Sprintf("   Project: %s v%s", info.ProjectName, info.Version))
	lines = append(lines, fmt.Sprintf("   Scripts: %s (%s)", info.ScriptsRoot, strings.Join(info.Extensions, ", ")))
	lines = append(lines, fmt.Sprintf("   Build Output: %s (target %s, minify: %t)", info.OutputDir, info.Target, info.Minify))
	lines = append(lines, fmt.Sprintf("   Userscript: %s", info.UserScript))
	lines = append(lines, fmt.Sprintf("   Menu Template: %s", menu))
	lines = append(lines, fmt.Sprintf("   Dev Server: http://localhost:%d", info.DevPort))

	return strings.Join(lines, "\n")
}

// WriteConfig writes config as YAML to path
func WriteConfig(path string, config *ProjectConfig) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return nil
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// ValidRunAt are the load timings userscript managers accept
var ValidRunAt = []string{"document-start", "document-body", "document-end", "document-idle", "context-menu"}

// DefaultGrants are the capabilities requested by the generated header
var DefaultGrants = []string{"GM_addStyle", "GM_getResourceText", "GM_xmlhttpRequest", "GM_setValue", "GM_getValue"}

type ProjectConfig struct {
	Name         string             `yaml:"name" env:"NAME"`
	Version      string             `yaml:"version" env:"VERSION"`
	License      string             `yaml:"license"`
	Author       string             `yaml:"author,omitempty" env:"AUTHOR"`
	Namespace    string             `yaml:"namespace"`
	Description  string             `yaml:"description"`
	Scripts      ScriptsConfig      `yaml:"scripts" envPrefix:"SCRIPTS_"`
	Build        BuildConfig        `yaml:"build" envPrefix:"BUILD_"`
	Tampermonkey TampermonkeyConfig `yaml:"tampermonkey" envPrefix:"TAMPERMONKEY_"`
	Plain        PlainConfig        `yaml:"plain"`
	Dev          DevConfig          `yaml:"dev" envPrefix:"DEV_"`

	path string
}

type ScriptsConfig struct {
	Root       string            `yaml:"root" env:"ROOT"`
	Extensions []string          `yaml:"extensions"`
	Exclude    []string          `yaml:"exclude"`
	Aliases    map[string]string `yaml:"aliases"` // import alias -> path relative to the project root
}

type BuildConfig struct {
	OutputDir  string `yaml:"output_dir" env:"OUTPUT_DIR"`
	ScratchDir string `yaml:"scratch_dir" env:"SCRATCH_DIR"`
	Target     string `yaml:"target" env:"TARGET"`
	Minify     *bool  `yaml:"minify" env:"MINIFY"`
}

// MinifyEnabled reports whether bundles are minified, true when unset
func (b BuildConfig) MinifyEnabled() bool {
	return b.Minify == nil || *b.Minify
}

type TampermonkeyConfig struct {
	Output       string   `yaml:"output" env:"OUTPUT"`
	MenuTemplate string   `yaml:"menu_template,omitempty" env:"MENU_TEMPLATE"`
	Match        []string `yaml:"match"`
	Grants       []string `yaml:"grants"`
	RunAt        string   `yaml:"run_at" env:"RUN_AT"`
	UpdateURL    string   `yaml:"update_url,omitempty" env:"UPDATE_URL"`
}

type PlainConfig struct {
	DataFile string `yaml:"data_file"`
}

type DevConfig struct {
	Port         int           `yaml:"port" env:"PORT"`
	Debounce     time.Duration `yaml:"debounce" env:"DEBOUNCE"`
	TypecheckCmd string        `yaml:"typecheck_cmd,omitempty" env:"TYPECHECK_CMD"`
}

// Path is the absolute path the config was loaded from
func (c *ProjectConfig) Path() string {
	return c.path
}

// ProjectDir is the directory relative paths in the config resolve against
func (c *ProjectConfig) ProjectDir() string {
	if c.path == "" {
		wd, _ := os.Getwd()
		return wd
	}
	return filepath.Dir(c.path)
}

// Resolve makes a config-relative path absolute
func (c *ProjectConfig) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.ProjectDir(), path)
}

// ScriptsRoot is the absolute scripts root
func (c *ProjectConfig) ScriptsRoot() string {
	return c.Resolve(c.Scripts.Root)
}

// OutputDir is the absolute build output directory
func (c *ProjectConfig) OutputDir() string {
	return c.Resolve(c.Build.OutputDir)
}

// UserScriptPath is where the Tampermonkey bundle is written
func (c *ProjectConfig) UserScriptPath() string {
	return filepath.Join(c.OutputDir(), c.Tampermonkey.Output)
}

// DefaultConfig returns the configuration of a fresh project
func DefaultConfig(name string) *ProjectConfig {
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "Boredom Engine"
	}
	minify := true

	return &ProjectConfig{
		Name:        name,
		Version:     "0.1.0",
		License:     "MIT",
		Namespace:   "http://tampermonkey.net/",
		Description: "Boredom Engine Scripts",
		Scripts: ScriptsConfig{
			Root:       "src/sites",
			Extensions: []string{".ts", ".js"},
			Exclude:    []string{"**/*.spec.*", "**/*.test.*", "**/shared/**"},
			Aliases:    map[string]string{"$common": "src/common", "$sites": "src/sites"},
		},
		Build: BuildConfig{
			OutputDir:  "dist",
			ScratchDir: ".boredom",
			Target:     bundler.DefaultTarget,
			Minify:     &minify,
		},
		Tampermonkey: TampermonkeyConfig{
			Output: "boredom.user.js",
			Match:  []string{"*://*/*"},
			Grants: slices.Clone(DefaultGrants),
			RunAt:  "document-start",
		},
		Plain: PlainConfig{
			DataFile: "scripts-data.json",
		},
		Dev: DevConfig{
			Port:     3000,
			Debounce: 300 * time.Millisecond,
		},
	}
}
