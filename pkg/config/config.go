// Package config loads the enricher's settings.
//
// Settings come from built-in defaults, then an optional TOML file, then
// the environment. The merged result is validated before use.
//
//	[github]
//	max_concurrency = 4
//
//	[enrich]
//	concurrency = 16
//	issues_ttl = "12h"
//
//	[cache]
//	redis_addr = "localhost:6379"
//
//	[output]
//	mongo_uri = "mongodb://localhost:27017"
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/holly-cummins/extensions.io/pkg/catalog"
	"github.com/holly-cummins/extensions.io/pkg/enrich"
	errs "github.com/holly-cummins/extensions.io/pkg/errors"
	"github.com/holly-cummins/extensions.io/pkg/integrations/github"
)

// Environment overrides.
const (
	TokenEnv    = "GITHUB_TOKEN"
	ClientIDEnv = "GITHUB_CLIENT_ID"
)

type Config struct {
	GitHub  GitHub  `toml:"github"`
	Enrich  Enrich  `toml:"enrich"`
	Maven   Maven   `toml:"maven"`
	Cache   Cache   `toml:"cache"`
	Catalog Catalog `toml:"catalog"`
	Output  Output  `toml:"output"`
	Server  Server  `toml:"server"`
}

type GitHub struct {
	Token string `toml:"token"`
	// ClientID is the OAuth app used by "enricher github login".
	ClientID       string        `toml:"client_id"`
	Endpoint       string        `toml:"endpoint" validate:"required,url"`
	RawURL         string        `toml:"raw_url" validate:"required,url"`
	MaxConcurrency int           `toml:"max_concurrency" validate:"min=1,max=64"`
	Retries        int           `toml:"retries" validate:"min=1,max=10"`
	RetryDelay     time.Duration `toml:"retry_delay" validate:"min=0"`
	// Failures before a host's circuit breaker opens.
	BreakerThreshold int `toml:"breaker_threshold" validate:"min=1"`
}

type Enrich struct {
	Concurrency      int           `toml:"concurrency" validate:"min=1,max=256"`
	LabelsRepository string        `toml:"labels_repository" validate:"required,url"`
	BotConfigPath    string        `toml:"bot_config_path" validate:"required"`
	MetadataTTL      time.Duration `toml:"metadata_ttl" validate:"gt=0"`
	IssuesTTL        time.Duration `toml:"issues_ttl" validate:"gt=0"`
	ImagesTTL        time.Duration `toml:"images_ttl" validate:"gt=0"`
	HistoryTTL       time.Duration `toml:"history_ttl" validate:"gt=0"`
}

type Maven struct {
	SearchURL string        `toml:"search_url" validate:"required,url"`
	CacheTTL  time.Duration `toml:"cache_ttl" validate:"min=0"`
}

type Cache struct {
	// Dir holds cache snapshots. Empty means the user cache directory.
	Dir           string `toml:"dir"`
	Disabled      bool   `toml:"disabled"`
	RedisAddr     string `toml:"redis_addr" validate:"omitempty,hostname_port"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db" validate:"min=0"`
}

type Catalog struct {
	URL string `toml:"url" validate:"required"`
}

type Output struct {
	File            string `toml:"file" validate:"required"`
	MongoURI        string `toml:"mongo_uri" validate:"omitempty,uri"`
	MongoDatabase   string `toml:"mongo_database" validate:"required_with=MongoURI"`
	MongoCollection string `toml:"mongo_collection" validate:"required_with=MongoURI"`
}

type Server struct {
	Addr string `toml:"addr" validate:"required"`
}

// Default returns the built-in settings.
func Default() *Config {
	e := enrich.DefaultConfig()
	return &Config{
		GitHub: GitHub{
			Endpoint:         github.DefaultEndpoint,
			RawURL:           github.DefaultRawURL,
			MaxConcurrency:   github.DefaultMaxConcurrency,
			Retries:          3,
			RetryDelay:       time.Second,
			BreakerThreshold: 5,
		},
		Enrich: Enrich{
			Concurrency:      e.Concurrency,
			LabelsRepository: e.LabelsRepository,
			BotConfigPath:    e.BotConfigPath,
			MetadataTTL:      e.MetadataTTL,
			IssuesTTL:        e.IssuesTTL,
			ImagesTTL:        e.ImagesTTL,
			HistoryTTL:       e.HistoryTTL,
		},
		Maven: Maven{
			SearchURL: "https://search.maven.org/solrsearch/select",
			CacheTTL:  24 * time.Hour,
		},
		Catalog: Catalog{URL: catalog.DefaultURL},
		Output: Output{
			File:            "records.json",
			MongoDatabase:   "extensions",
			MongoCollection: "source_control",
		},
		Server: Server{Addr: ":8080"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/enricher/config.toml or the
// platform equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "enricher", "config.toml"), nil
}

// Load reads the file at path over the defaults and applies environment
// overrides. An empty path means [DefaultPath], which may be absent; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		err := cfg.decodeFile(path)
		if err != nil && (explicit || !errors.Is(err, fs.ErrNotExist)) {
			return nil, err
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errs.New(errs.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) applyEnv() {
	if tok := strings.TrimSpace(os.Getenv(TokenEnv)); tok != "" {
		c.GitHub.Token = tok
	}
	if id := strings.TrimSpace(os.Getenv(ClientIDEnv)); id != "" {
		c.GitHub.ClientID = id
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field constraint and reports the first failures
// as one INVALID_CONFIG error.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "invalid configuration")
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fe.Namespace() + " fails " + fe.Tag()
		if fe.Param() != "" {
			msgs[i] += "=" + fe.Param()
		}
	}
	return errs.New(errs.ErrCodeInvalidConfig, "invalid configuration: %s", strings.Join(msgs, "; "))
}

// EnrichConfig returns the orchestrator settings.
func (c *Config) EnrichConfig() enrich.Config {
	return enrich.Config{
		Concurrency:      c.Enrich.Concurrency,
		LabelsRepository: c.Enrich.LabelsRepository,
		BotConfigPath:    c.Enrich.BotConfigPath,
		MetadataTTL:      c.Enrich.MetadataTTL,
		IssuesTTL:        c.Enrich.IssuesTTL,
		ImagesTTL:        c.Enrich.ImagesTTL,
		HistoryTTL:       c.Enrich.HistoryTTL,
	}
}
