package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config holds everything the hexy binary needs to serve maps.
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Strava   StravaConfig   `yaml:"strava" toml:"strava"`
	Map      MapConfig      `yaml:"map" toml:"map"`
	Session  SessionConfig  `yaml:"session" toml:"session"`
	Crypto   CryptoConfig   `yaml:"crypto" toml:"crypto"`
	Engine   EngineConfig   `yaml:"engine" toml:"engine"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

type ServerConfig struct {
	Port           int           `yaml:"port" toml:"port" validate:"min=1,max=65535"`
	CacheTTL       time.Duration `yaml:"cache_ttl" toml:"cache_ttl"`
	CacheSize      int           `yaml:"cache_size" toml:"cache_size" validate:"min=1"`
	RateLimit      int           `yaml:"rate_limit" toml:"rate_limit" validate:"min=1"`
	AutocertDomain string        `yaml:"autocert_domain" toml:"autocert_domain"`
	AutocertDir    string        `yaml:"autocert_dir" toml:"autocert_dir"`
}

type DatabaseConfig struct {
	Driver      string `yaml:"driver" toml:"driver" validate:"oneof=sqlite postgres"`
	URL         string `yaml:"url" toml:"url" validate:"required"`
	AutoMigrate bool   `yaml:"auto_migrate" toml:"auto_migrate"`
}

type StravaConfig struct {
	BaseURL      string        `yaml:"base_url" toml:"base_url" validate:"required,url"`
	ClientID     string        `yaml:"client_id" toml:"client_id" validate:"required"`
	ClientSecret string        `yaml:"client_secret" toml:"client_secret" validate:"required"`
	RedirectURI  string        `yaml:"redirect_uri" toml:"redirect_uri" validate:"required,url"`
	PerPage      int           `yaml:"per_page" toml:"per_page" validate:"min=1,max=200"`
	MaxPages     int           `yaml:"max_pages" toml:"max_pages" validate:"min=1"`
	Timeout      time.Duration `yaml:"timeout" toml:"timeout"`
}

// MapConfig is the browser map bootstrap. OSKey is injected into Ordnance
// Survey tile requests.
type MapConfig struct {
	Style        string        `yaml:"style" toml:"style" validate:"required"`
	OSKey        string        `yaml:"os_key" toml:"os_key"`
	Center       [2]float64    `yaml:"center" toml:"center"`
	Zoom         float64       `yaml:"zoom" toml:"zoom"`
	MinZoom      float64       `yaml:"min_zoom" toml:"min_zoom"`
	MaxZoom      float64       `yaml:"max_zoom" toml:"max_zoom" validate:"gtefield=MinZoom"`
	MaxBounds    [2][2]float64 `yaml:"max_bounds" toml:"max_bounds"`
	HiddenGroups []string      `yaml:"hidden_groups" toml:"hidden_groups"`
}

type SessionConfig struct {
	Secret string        `yaml:"secret" toml:"secret" validate:"required,min=16"`
	TTL    time.Duration `yaml:"ttl" toml:"ttl"`
	Secure bool          `yaml:"secure" toml:"secure"`
}

type CryptoConfig struct {
	FernetKeys string `yaml:"fernet_keys" toml:"fernet_keys" validate:"required"`
}

type EngineConfig struct {
	Resolution         int `yaml:"resolution" toml:"resolution" validate:"min=0,max=15"`
	CentroidResolution int `yaml:"centroid_resolution" toml:"centroid_resolution" validate:"min=0,max=15"`
	Workers            int `yaml:"workers" toml:"workers" validate:"min=1"`
}

type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	Console bool   `yaml:"console" toml:"console"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8000,
			CacheTTL:    5 * time.Minute,
			CacheSize:   256,
			RateLimit:   30,
			AutocertDir: "./certs",
		},
		Database: DatabaseConfig{
			Driver:      "sqlite",
			URL:         "file:hexy.db",
			AutoMigrate: true,
		},
		Strava: StravaConfig{
			BaseURL:  "https://www.strava.com",
			PerPage:  200,
			MaxPages: 5,
			Timeout:  20 * time.Second,
		},
		Map: MapConfig{
			Style:     "https://raw.githubusercontent.com/OrdnanceSurvey/OS-Vector-Tile-API-Stylesheets/main/OS_VTS_3857_Light.json",
			Center:    [2]float64{-4.2, 52.4},
			Zoom:      6,
			MinZoom:   6,
			MaxZoom:   18,
			MaxBounds: [2][2]float64{{-10.7, 49.5}, {1.9, 61.3}},
		},
		Session: SessionConfig{
			TTL: 30 * 24 * time.Hour,
		},
		Engine: EngineConfig{
			Resolution:         9,
			CentroidResolution: 5,
			Workers:            runtime.NumCPU(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadDotenv reads .env style files into the process environment. Missing
// files are not an error.
func LoadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load starts from Default, applies the file at path (yaml or toml, by
// extension) when path is set, then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case ".toml":
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		default:
			return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
		}
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	strs := map[string]*string{
		"STRAVA_BASE":          &c.Strava.BaseURL,
		"STRAVA_CLIENT_ID":     &c.Strava.ClientID,
		"STRAVA_CLIENT_SECRET": &c.Strava.ClientSecret,
		"REDIRECT_URI":         &c.Strava.RedirectURI,
		"OS_KEY":               &c.Map.OSKey,
		"FERNET_KEYS":          &c.Crypto.FernetKeys,
		"SESSION_SECRET":       &c.Session.Secret,
		"DATABASE_URL":         &c.Database.URL,
		"DATABASE_DRIVER":      &c.Database.Driver,
		"AUTOCERT_DOMAIN":      &c.Server.AutocertDomain,
		"LOG_LEVEL":            &c.Logging.Level,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate reports the first field that breaks its constraint.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("config: %s failed %q", fe.Namespace(), fe.Tag())
	}
	return err
}
