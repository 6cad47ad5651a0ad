package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// FileName is the project file searched for by Load
const FileName = "dtig.json"

// Defaults
const (
	DefaultTarget    = "cpp"
	DefaultMaxDepth  = 64
	DefaultOutputDir = "build"
	TemplateSuffix   = ".dtig"
)

// DefaultExclude lists editor and generator temp files the watcher ignores
var DefaultExclude = []string{"*.swp", "*.swx", "*~", ".#*", "4913", ".*.tmp-*"}

// Config represents the dtig.json project file
type Config struct {
	Name        string            `json:"name"`
	Model       string            `json:"model"`
	Target      string            `json:"target"`
	Types       string            `json:"types"`
	MaxDepth    int               `json:"maxDepth"`
	Parallelism int               `json:"parallelism"`
	Templates   []Template        `json:"templates"`
	Vars        map[string]string `json:"vars"`
	Watch       WatchConfig       `json:"watch"`

	// Dir is the directory holding the project file; relative paths resolve against it
	Dir string `json:"-"`
}

// Template maps one template source to its generated output
type Template struct {
	Source string `json:"source"`
	Output string `json:"output"`
}

// WatchConfig contains watch mode configuration
type WatchConfig struct {
	Exclude []string `json:"exclude"`
}

// Load finds dtig.json in the current directory or a parent directory
func Load() (*Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get current directory")
	}
	return LoadFromDir(dir)
}

// LoadFromDir searches for dtig.json in dir and its parents
func LoadFromDir(startDir string) (*Config, error) {
	dir := startDir
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return LoadFromPath(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil, errors.Errorf("no %s found in %s or any parent directory", FileName, startDir)
}

// LoadFromPath loads a specific project file, applies defaults and resolves paths
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", path)
	}

	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve config directory")
	}
	cfg.Dir = abs

	if err := cfg.validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file %s", path)
	}
	cfg.applyDefaults()
	cfg.resolvePaths()
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Model == "" {
		return errors.New("model is required")
	}
	if len(c.Templates) == 0 {
		return errors.New("at least one template is required")
	}
	for i, t := range c.Templates {
		if t.Source == "" {
			return errors.Errorf("templates[%d]: source is required", i)
		}
	}
	if c.MaxDepth < 0 {
		return errors.Errorf("maxDepth must not be negative, got %d", c.MaxDepth)
	}
	if c.Parallelism < 0 {
		return errors.Errorf("parallelism must not be negative, got %d", c.Parallelism)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = filepath.Base(c.Dir)
	}
	if c.Target == "" {
		c.Target = DefaultTarget
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.Parallelism == 0 {
		c.Parallelism = runtime.NumCPU()
	}
	if len(c.Watch.Exclude) == 0 {
		c.Watch.Exclude = DefaultExclude
	}
	for i, t := range c.Templates {
		if t.Output == "" {
			name := strings.TrimSuffix(filepath.Base(t.Source), TemplateSuffix)
			c.Templates[i].Output = filepath.Join(DefaultOutputDir, name)
		}
	}
}

func (c *Config) resolvePaths() {
	c.Model = c.Path(c.Model)
	if c.Types != "" {
		c.Types = c.Path(c.Types)
	}
	for i, t := range c.Templates {
		c.Templates[i].Source = c.Path(t.Source)
		c.Templates[i].Output = c.Path(t.Output)
	}
}

// Path resolves p against the project directory unless it is absolute
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Dir, p)
}

// Files lists every input file of the project: model, type table and templates
func (c *Config) Files() []string {
	files := []string{c.Model}
	if c.Types != "" {
		files = append(files, c.Types)
	}
	for _, t := range c.Templates {
		files = append(files, t.Source)
	}
	return files
}
