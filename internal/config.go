package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/docgraph/internal/graph"
	"github.com/starford/docgraph/internal/parser"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// DefaultProject is the project label used when none is configured.
const DefaultProject = "TradingEngine"

var labelRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Docs    DocsConfig        `yaml:"docs"`
	Project ProjectConfig     `yaml:"project"`
	Graph   GraphConfig       `yaml:"graph"`
	Limits  LimitsConfig      `yaml:"limits"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Docs.Validate(); err != nil {
		return fmt.Errorf("docs: %w", err)
	}
	if err := c.Project.Validate(); err != nil {
		return fmt.Errorf("project: %w", err)
	}
	if err := c.Graph.Validate(); err != nil {
		return fmt.Errorf("graph: %w", err)
	}
	if err := c.Limits.Validate(); err != nil {
		return fmt.Errorf("limits: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatJSON, LogFormatText)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DocsConfig describes the documentation corpus.
type DocsConfig struct {
	Path string `yaml:"path"`
	// Exclude holds doublestar globs relative to Path.
	Exclude []string `yaml:"exclude"`
	// Vocabulary is an optional component vocabulary file; empty means the
	// built-in list.
	Vocabulary string `yaml:"vocabulary"`
	// Debounce is the quiet period before a watch-mode rescan.
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the docs configuration.
func (c *DocsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// ProjectConfig names the project the graph is written under.
type ProjectConfig struct {
	Label string `yaml:"label"`
}

// Validate validates the project configuration.
func (c *ProjectConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Label, validation.Required,
			validation.Match(labelRe).Error("must be a letter or underscore followed by letters, digits or underscores")),
	)
}

// GraphConfig selects and configures the graph store.
type GraphConfig struct {
	Backend    string `yaml:"backend"`
	URI        string `yaml:"uri"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	SQLitePath string `yaml:"sqlite_path"`
	// Reset wipes the project's nodes before writing.
	Reset bool `yaml:"reset"`
}

// Validate validates the graph configuration.
func (c *GraphConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(graph.BackendNeo4j, graph.BackendSQLite)),
		validation.Field(&c.URI, validation.When(c.Backend == graph.BackendNeo4j, validation.Required)),
		validation.Field(&c.SQLitePath, validation.When(c.Backend == graph.BackendSQLite, validation.Required)),
	)
}

// StoreConfig converts to the graph package's open settings.
func (c *GraphConfig) StoreConfig() graph.Config {
	return graph.Config{
		Backend: c.Backend,
		Neo4j: graph.Neo4jConfig{
			URI:      c.URI,
			Username: c.Username,
			Password: c.Password,
			Database: c.Database,
		},
		SQLitePath: c.SQLitePath,
	}
}

// Target describes where the graph is written, without credentials.
func (c *GraphConfig) Target() string {
	if c.Backend == graph.BackendSQLite {
		return c.SQLitePath
	}
	return c.URI
}

// LimitsConfig holds the extraction and write truncation limits.
type LimitsConfig struct {
	ContentChars      int `yaml:"content_chars"`
	SectionChars      int `yaml:"section_chars"`
	MaxConcepts       int `yaml:"max_concepts"`
	WriteContentChars int `yaml:"write_content_chars"`
	WriteConcepts     int `yaml:"write_concepts"`
}

// Validate validates the limits configuration.
func (c *LimitsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ContentChars, validation.Required, validation.Min(1)),
		validation.Field(&c.SectionChars, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxConcepts, validation.Required, validation.Min(1)),
		validation.Field(&c.WriteContentChars, validation.Required, validation.Min(1)),
		validation.Field(&c.WriteConcepts, validation.Required, validation.Min(1)),
	)
}

// Parser returns the extraction-time limits.
func (c *LimitsConfig) Parser() parser.Limits {
	return parser.Limits{
		ContentChars: c.ContentChars,
		SectionChars: c.SectionChars,
		MaxConcepts:  c.MaxConcepts,
	}
}

// Writer returns the write-time limits.
func (c *LimitsConfig) Writer() graph.Limits {
	return graph.Limits{
		ContentChars: c.WriteContentChars,
		MaxConcepts:  c.WriteConcepts,
	}
}

// AuthConfig holds authentication configuration for the serve command.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	pl := parser.DefaultLimits()
	wl := graph.DefaultLimits()
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatJSON,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Docs: DocsConfig{
			Path:     "./docs",
			Debounce: 500 * time.Millisecond,
		},
		Project: ProjectConfig{
			Label: DefaultProject,
		},
		Graph: GraphConfig{
			Backend:    graph.BackendNeo4j,
			URI:        "bolt://localhost:7687",
			SQLitePath: "./docgraph.db",
			Reset:      true,
		},
		Limits: LimitsConfig{
			ContentChars:      pl.ContentChars,
			SectionChars:      pl.SectionChars,
			MaxConcepts:       pl.MaxConcepts,
			WriteContentChars: wl.ContentChars,
			WriteConcepts:     wl.MaxConcepts,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
