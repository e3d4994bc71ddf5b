// Package config provides configuration types, defaults and loading for
// the prompt renderer.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jlaneve/prompt/internal/ansi"
	"github.com/jlaneve/prompt/internal/pathfmt"
)

// EnvPrefix prefixes environment variables that override config keys,
// e.g. PROMPT_MAX_COMPONENTS.
const EnvPrefix = "PROMPT"

// Config holds all configuration options for the prompt.
type Config struct {
	Shell           string `mapstructure:"shell" yaml:"shell"`
	MaxComponents   int    `mapstructure:"max_components" yaml:"max_components"`
	PromptCharacter string `mapstructure:"prompt_character" yaml:"prompt_character"`
	ShowStash       bool   `mapstructure:"show_stash" yaml:"show_stash"`
	ShowRepoState   bool   `mapstructure:"show_repo_state" yaml:"show_repo_state"`
	Colors          Colors `mapstructure:"colors" yaml:"colors"`
}

// Colors maps each prompt fragment to a color role name.
// Valid values: reset, normal, bold, dim, italic, red, red_bold, yellow,
// blue, magenta.
type Colors struct {
	DirAncestors string `mapstructure:"dir_ancestors" yaml:"dir_ancestors"`
	DirFinal     string `mapstructure:"dir_final" yaml:"dir_final"`
	Head         string `mapstructure:"head" yaml:"head"`
	Status       string `mapstructure:"status" yaml:"status"`
	Markers      string `mapstructure:"markers" yaml:"markers"`
	User         string `mapstructure:"user" yaml:"user"`
	RootUser     string `mapstructure:"root_user" yaml:"root_user"`
	Venv         string `mapstructure:"venv" yaml:"venv"`
}

// Palette is Colors resolved to roles
type Palette struct {
	DirAncestors ansi.Role
	DirFinal     ansi.Role
	Head         ansi.Role
	Status       ansi.Role
	Markers      ansi.Role
	User         ansi.Role
	RootUser     ansi.Role
	Venv         ansi.Role
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Shell:           "zsh",
		MaxComponents:   pathfmt.DefaultMaxComponents,
		PromptCharacter: "$",
		ShowStash:       true,
		ShowRepoState:   true,
		Colors: Colors{
			DirAncestors: "dim",
			DirFinal:     "bold",
			Head:         "dim",
			Status:       "yellow",
			Markers:      "normal",
			User:         "italic",
			RootUser:     "red",
			Venv:         "italic",
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/prompt/config.yaml, falling back to
// ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "prompt", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "prompt", "config.yaml"), nil
}

// Load reads the config file at path, applies PROMPT_* environment
// overrides and validates the result. A missing file yields the defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it even
// when the file does not mention it.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("shell", d.Shell)
	v.SetDefault("max_components", d.MaxComponents)
	v.SetDefault("prompt_character", d.PromptCharacter)
	v.SetDefault("show_stash", d.ShowStash)
	v.SetDefault("show_repo_state", d.ShowRepoState)
	v.SetDefault("colors.dir_ancestors", d.Colors.DirAncestors)
	v.SetDefault("colors.dir_final", d.Colors.DirFinal)
	v.SetDefault("colors.head", d.Colors.Head)
	v.SetDefault("colors.status", d.Colors.Status)
	v.SetDefault("colors.markers", d.Colors.Markers)
	v.SetDefault("colors.user", d.Colors.User)
	v.SetDefault("colors.root_user", d.Colors.RootUser)
	v.SetDefault("colors.venv", d.Colors.Venv)
}

// Validate checks that every value is usable.
func (c Config) Validate() error {
	if _, err := ansi.ParseShell(c.Shell); err != nil {
		return fmt.Errorf("shell: %w", err)
	}
	if c.MaxComponents < 1 {
		return fmt.Errorf("max_components must be at least 1, got %d", c.MaxComponents)
	}
	if c.PromptCharacter == "" {
		return fmt.Errorf("prompt_character cannot be empty")
	}
	if _, err := c.Colors.Palette(); err != nil {
		return err
	}
	return nil
}

// Palette resolves every role name.
func (c Colors) Palette() (Palette, error) {
	var p Palette
	fields := []struct {
		key  string
		name string
		dst  *ansi.Role
	}{
		{"dir_ancestors", c.DirAncestors, &p.DirAncestors},
		{"dir_final", c.DirFinal, &p.DirFinal},
		{"head", c.Head, &p.Head},
		{"status", c.Status, &p.Status},
		{"markers", c.Markers, &p.Markers},
		{"user", c.User, &p.User},
		{"root_user", c.RootUser, &p.RootUser},
		{"venv", c.Venv, &p.Venv},
	}
	for _, f := range fields {
		role, err := ansi.ParseRole(f.name)
		if err != nil {
			return Palette{}, fmt.Errorf("colors.%s: %w", f.key, err)
		}
		*f.dst = role
	}
	return p, nil
}

// YAML renders the effective configuration.
func (c Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return out, nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Prompt Configuration

# Escape sequence wrapping: bash, zsh, nushell or plain
shell: zsh

# Number of trailing directory components shown
max_components: 3

# Character printed on the last line of the prompt
prompt_character: "$"

# Append S when the stash is not empty
show_stash: true

# Show merge, rebase, bisect, ... instead of the branch while in progress
show_repo_state: true

# Color roles: reset, normal, bold, dim, italic, red, red_bold, yellow,
# blue, magenta
colors:
  dir_ancestors: dim
  dir_final: bold
  head: dim
  status: yellow
  markers: normal
  user: italic
  root_user: red
  venv: italic
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist. An existing file is
// left untouched.
func WriteDefaultConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file %s already exists", configPath)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
