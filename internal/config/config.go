package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/vango-dev/pushroute/internal/errors"
	"github.com/vango-dev/pushroute/pkg/content"
	"github.com/vango-dev/pushroute/pkg/routepath"
	"github.com/vango-dev/pushroute/pkg/site"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultShutdownTimeout is the default graceful shutdown timeout.
	DefaultShutdownTimeout = "10s"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"
)

// FileNames are the project file names Load looks for, in order.
var FileNames = []string{"pushroute.json", "pushroute.toml", "pushroute.yaml", "pushroute.yml"}

// Config represents a pushroute project file.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" toml:"name" yaml:"name,omitempty"`

	// Host is the address the server binds to.
	Host string `json:"host,omitempty" toml:"host" yaml:"host,omitempty"`

	// Port is the server port.
	Port int `json:"port,omitempty" toml:"port" yaml:"port,omitempty"`

	// Default is the fallback route for "/" and unknown paths.
	Default string `json:"default,omitempty" toml:"default" yaml:"default,omitempty"`

	// NotFound is the page shown for unknown paths when no default is set.
	NotFound string `json:"notFound,omitempty" toml:"notFound" yaml:"notFound,omitempty"`

	// Routes are the registered pages.
	Routes []RouteConfig `json:"routes,omitempty" toml:"routes" yaml:"routes,omitempty"`

	// Triggers bind clickable element ids to paths.
	Triggers []TriggerConfig `json:"triggers,omitempty" toml:"triggers" yaml:"triggers,omitempty"`

	// S3 configures the client for s3:// content sources.
	S3 S3Config `json:"s3,omitempty" toml:"s3" yaml:"s3,omitempty"`

	// Server contains live server settings.
	Server ServerConfig `json:"server,omitempty" toml:"server" yaml:"server,omitempty"`

	// Log contains logging settings.
	Log LogConfig `json:"log,omitempty" toml:"log" yaml:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// RouteConfig declares one route. Exactly one of Content, File and Source
// must be set.
type RouteConfig struct {
	// Path is the route path.
	Path string `json:"path" toml:"path" yaml:"path"`

	// Title is the document title (default: the path).
	Title string `json:"title,omitempty" toml:"title" yaml:"title,omitempty"`

	// Content is inline markup.
	Content string `json:"content,omitempty" toml:"content" yaml:"content,omitempty"`

	// File is a content file, relative to the project file.
	File string `json:"file,omitempty" toml:"file" yaml:"file,omitempty"`

	// Source is an s3://bucket/key url.
	Source string `json:"source,omitempty" toml:"source" yaml:"source,omitempty"`
}

// TriggerConfig binds an element id to a path.
type TriggerConfig struct {
	ID   string `json:"id" toml:"id" yaml:"id"`
	Path string `json:"path" toml:"path" yaml:"path"`
}

// S3Config configures S3 access.
type S3Config struct {
	// Region is the bucket region.
	Region string `json:"region,omitempty" toml:"region" yaml:"region,omitempty"`

	// Endpoint overrides the S3 endpoint (e.g. MinIO).
	Endpoint string `json:"endpoint,omitempty" toml:"endpoint" yaml:"endpoint,omitempty"`

	// UsePathStyle enables path-style bucket addressing.
	UsePathStyle bool `json:"usePathStyle,omitempty" toml:"usePathStyle" yaml:"usePathStyle,omitempty"`
}

// ServerConfig contains live server settings.
type ServerConfig struct {
	// ShutdownTimeout bounds graceful shutdown (e.g., "10s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" toml:"shutdownTimeout" yaml:"shutdownTimeout,omitempty"`

	// AllowedOrigins lists origins accepted for WebSocket upgrades.
	// Same-origin requests are always accepted.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" toml:"allowedOrigins" yaml:"allowedOrigins,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" toml:"level" yaml:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty" toml:"format" yaml:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Host: DefaultHost,
		Port: DefaultPort,
		Server: ServerConfig{
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: "text",
		},
	}
}

// Load reads the first project file found in dir.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("C001").
		WithDetail("No project file found in " + dir).
		WithSuggestion("Create pushroute.json with a \"routes\" list")
}

// LoadFile reads configuration from the specified file path. The format is
// chosen by extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("C001").
				WithDetail("No project file at " + path).
				WithSuggestion("Create pushroute.json with a \"routes\" list")
		}
		return nil, errors.New("C002").Wrap(err)
	}

	cfg := New()
	if err := decode(path, data, cfg); err != nil {
		return nil, err
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, cfg)
	case ".toml":
		_, err = toml.Decode(string(data), cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return errors.New("C003").At(path, "").
			WithSuggestion("Rename the file to pushroute.json")
	}
	if err != nil {
		return errors.New("C002").At(path, "").Wrap(err).
			WithSuggestion("Check the project file syntax")
	}
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Address returns host:port.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ShutdownTimeout parses Server.ShutdownTimeout.
func (c *Config) ShutdownTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 0, errors.New("C005").At(c.configPath, "server.shutdownTimeout").
			WithDetail(fmt.Sprintf("%q is not a positive duration.", c.Server.ShutdownTimeout))
	}
	return d, nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate checks the route table for consistency. All problems are
// reported, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	at := func(e *errors.Error, field string) {
		errs = append(errs, e.At(c.configPath, field))
	}

	if c.Port < 1 || c.Port > 65535 {
		at(errors.New("C004"), "port")
	}
	if _, err := c.ShutdownTimeout(); err != nil {
		errs = append(errs, err)
	}

	if len(c.Routes) == 0 {
		at(errors.New("R007"), "routes")
	}

	paths := make(map[string]int, len(c.Routes))
	for i, rt := range c.Routes {
		field := fmt.Sprintf("routes[%d]", i)
		clean, err := routepath.Clean(rt.Path)
		if err != nil {
			at(errors.New("R002").Wrap(err), field+".path")
			continue
		}
		if prev, dup := paths[clean]; dup {
			at(errors.New("R003").WithSuggestion(fmt.Sprintf("routes[%d] already uses %s", prev, clean)), field+".path")
		}
		paths[clean] = i

		sources := 0
		for _, s := range []string{rt.Content, rt.File, rt.Source} {
			if s != "" {
				sources++
			}
		}
		if sources != 1 {
			at(errors.New("R004"), field)
		}
	}

	if c.Default != "" {
		clean, err := routepath.Clean(c.Default)
		if _, ok := paths[clean]; err != nil || !ok {
			at(errors.New("R001").
				WithSuggestion(fmt.Sprintf("Add a route with path %q or change \"default\"", c.Default)), "default")
		}
	}

	ids := make(map[string]bool, len(c.Triggers))
	for i, tr := range c.Triggers {
		field := fmt.Sprintf("triggers[%d]", i)
		if ids[tr.ID] {
			at(errors.New("R006"), field+".id")
		}
		ids[tr.ID] = true

		clean, err := routepath.Clean(tr.Path)
		if _, ok := paths[clean]; err != nil || !ok {
			at(errors.New("R005"), field+".path")
		}
	}

	return errors.Join(errs...)
}

// Site validates the configuration and resolves every route's content into
// a site.Site.
func (c *Config) Site(ctx context.Context, loader *content.Loader) (*site.Site, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	s := &site.Site{
		Name:     c.Name,
		NotFound: c.NotFound,
	}
	if c.Default != "" {
		// Validate has already accepted the path.
		s.Default, _ = routepath.Clean(c.Default)
	}
	for i, rc := range c.Routes {
		body := rc.Content
		if body == "" {
			src := rc.File
			if src == "" {
				src = rc.Source
			}
			var err error
			body, err = loader.Load(ctx, src)
			if err != nil {
				code := "S001"
				if errors.Is(err, content.ErrUnsupportedSource) {
					code = "S002"
				}
				return nil, errors.New(code).At(c.configPath, fmt.Sprintf("routes[%d]", i)).Wrap(err)
			}
		}
		clean, _ := routepath.Clean(rc.Path)
		s.Routes = append(s.Routes, site.Route{Path: clean, Title: rc.Title, Content: body})
	}
	for _, tc := range c.Triggers {
		s.Triggers = append(s.Triggers, site.Trigger{ID: tc.ID, Path: tc.Path})
	}
	return s, nil
}

// Loader returns a content loader rooted at the project directory, with an
// S3 client when S3 settings or s3:// sources are present.
func (c *Config) Loader(logger *slog.Logger) *content.Loader {
	opts := []content.Option{content.WithLogger(logger)}
	if c.usesS3() {
		opts = append(opts, content.WithS3(content.NewS3Client(content.S3Config{
			Region:       c.S3.Region,
			Endpoint:     c.S3.Endpoint,
			UsePathStyle: c.S3.UsePathStyle,
		})))
	}
	return content.NewLoader(c.Dir(), opts...)
}

func (c *Config) usesS3() bool {
	if c.S3 != (S3Config{}) {
		return true
	}
	for _, rt := range c.Routes {
		if strings.HasPrefix(rt.Source, "s3://") {
			return true
		}
	}
	return false
}
