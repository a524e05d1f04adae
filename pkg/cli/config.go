package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/sentio/pkg/storage"
	"github.com/haivivi/sentio/pkg/task"
)

const (
	// DefaultBaseDir is the base configuration directory name
	DefaultBaseDir = ".sentio"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
)

// Config is the CLI configuration file.
type Config struct {
	// AppName is the application name
	AppName string `yaml:"-"`

	// CurrentContext is the name of the currently active context
	CurrentContext string `yaml:"current_context,omitempty"`

	// Contexts maps context names to their settings
	Contexts map[string]*Context `yaml:"contexts,omitempty"`

	configPath string
}

// Context is one named set of settings.
type Context struct {
	Name string `yaml:"name"`

	// Assets is where model and vocabulary files are read from.
	Assets AssetSource `yaml:"assets"`

	// HistoryDir is the badger directory for stored outcomes. Empty
	// disables history.
	HistoryDir string `yaml:"history_dir,omitempty"`

	// Tasks maps a mode ("text", "audio") to a task YAML file that
	// replaces the built-in descriptor.
	Tasks map[string]string `yaml:"tasks,omitempty"`

	// WhisperModel is the ggml model used by the transcribe command.
	WhisperModel string `yaml:"whisper_model,omitempty"`
}

// AssetSource selects a local directory or an S3 bucket.
type AssetSource struct {
	Dir string             `yaml:"dir,omitempty"`
	S3  *storage.S3Options `yaml:"s3,omitempty"`
}

// Open returns the FileStore for the source.
func (a AssetSource) Open(ctx context.Context) (storage.FileStore, error) {
	switch {
	case a.S3 != nil && a.Dir != "":
		return nil, errors.New("assets: set either dir or s3, not both")
	case a.S3 != nil:
		s, err := storage.DialS3(ctx, *a.S3)
		if err != nil {
			return nil, err
		}
		return s, nil
	case a.Dir != "":
		l, err := storage.NewLocal(a.Dir)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	return nil, errors.New("assets: no dir or s3 source configured")
}

// String describes the source for display.
func (a AssetSource) String() string {
	if a.S3 != nil {
		return "s3://" + strings.TrimSuffix(a.S3.Bucket+"/"+a.S3.Prefix, "/")
	}
	return a.Dir
}

// TaskOverrides loads the context's task files keyed by mode.
func (ctx *Context) TaskOverrides() (map[task.Mode]task.Config, error) {
	out := make(map[task.Mode]task.Config, len(ctx.Tasks))
	for m, path := range ctx.Tasks {
		mode, err := task.ParseMode(m)
		if err != nil {
			return nil, fmt.Errorf("context %q: %w", ctx.Name, err)
		}
		cfg, err := task.Load(path)
		if err != nil {
			return nil, fmt.Errorf("context %q: %w", ctx.Name, err)
		}
		out[mode] = cfg
	}
	return out, nil
}

// LoadConfig loads or creates configuration for the specified app
func LoadConfig(appName string) (*Config, error) {
	return LoadConfigWithPath(appName, "")
}

// LoadConfigWithPath loads configuration from a custom path
func LoadConfigWithPath(appName, customPath string) (*Config, error) {
	configPath := customPath
	if configPath == "" {
		paths, err := NewPaths(appName)
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = paths.ConfigFile()
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{
		AppName:    appName,
		Contexts:   make(map[string]*Context),
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	cfg.AppName = appName
	cfg.configPath = configPath
	return cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Path returns the config file path
func (c *Config) Path() string { return c.configPath }

// Dir returns the config directory path
func (c *Config) Dir() string { return filepath.Dir(c.configPath) }

// AddContext adds or replaces a context
func (c *Config) AddContext(name string, ctx *Context) error {
	ctx.Name = name
	c.Contexts[name] = ctx
	if c.CurrentContext == "" {
		c.CurrentContext = name
	}
	return c.Save()
}

// DeleteContext removes a context
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return c.Save()
}

// UseContext sets the current context
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return c.Save()
}

// GetContext returns a specific context
func (c *Config) GetContext(name string) (*Context, error) {
	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("context %q not found", name)
	}
	return ctx, nil
}

// ResolveContext returns the named context, or the current one if name is
// empty.
func (c *Config) ResolveContext(name string) (*Context, error) {
	if name == "" {
		if c.CurrentContext == "" {
			return nil, errors.New("no current context set (run: sentio config add-context)")
		}
		name = c.CurrentContext
	}
	return c.GetContext(name)
}

// ListContexts returns all context names, sorted
func (c *Config) ListContexts() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// MaskSecret masks a credential for display
func MaskSecret(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// Masked returns a copy of ctx with credentials masked.
func (ctx *Context) Masked() *Context {
	cp := *ctx
	if ctx.Assets.S3 != nil {
		s3 := *ctx.Assets.S3
		s3.AccessKey = MaskSecret(s3.AccessKey)
		s3.SecretKey = MaskSecret(s3.SecretKey)
		cp.Assets.S3 = &s3
	}
	return &cp
}
