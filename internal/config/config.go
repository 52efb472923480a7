package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig
	Graph   GraphConfig
	Logging LoggingConfig
	Dataset DatasetConfig
	Build   BuildConfig
	Refresh RefreshConfig
	Storage StorageConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MetricsEnabled    bool
	AllowedOriginsCSV string
	StaticDir         string
}

// GraphConfig describes connectivity to the Neo4j export target.
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
	BatchSize      int
	Workers        int
	QueryTimeout   time.Duration
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	Colored       bool
	IncludeCaller bool
}

// DatasetConfig locates the artifact served by the distance engine.
type DatasetConfig struct {
	Path           string
	ReferenceActor string
	Watch          bool
	// Source is file to serve Path directly or store to fetch it from the
	// artifact store under Path's base name.
	Source  string
	Publish bool
}

// BuildConfig selects the raw tables and the filters applied while building.
type BuildConfig struct {
	DataDir         string
	TitleBasics     string
	TitlePrincipals string
	NameBasics      string
	Profile         string
	Profiled        BuildProfile
}

// RefreshConfig controls downloads of the upstream IMDb exports.
type RefreshConfig struct {
	Enabled    bool
	BaseURL    string
	Interval   time.Duration
	StaleAfter time.Duration
	MaxRetries int
	RetryWait  time.Duration
	Timeout    time.Duration
}

// StorageConfig selects where built artifacts are published.
type StorageConfig struct {
	Backend   string // file|s3
	Dir       string
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

const (
	defaultHost              = "0.0.0.0"
	defaultPort              = 8080
	defaultReadTimeout       = 10 * time.Second
	defaultWriteTimeout      = 15 * time.Second
	defaultIdleTimeout       = 60 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
	defaultLoggingLevel      = "info"
	defaultLoggingFormat     = "text"
	defaultGraphMaxSessions  = 10
	defaultGraphBatchSize    = 500
	defaultGraphWorkers      = 4
	defaultGraphQueryTimeout = time.Minute

	defaultDataDir        = "data"
	defaultDatasetFile    = "dataset.json"
	defaultReferenceActor = "Kevin Bacon"

	defaultRefreshBaseURL    = "https://datasets.imdbws.com"
	defaultRefreshInterval   = 24 * time.Hour
	defaultRefreshStaleAfter = 24 * time.Hour
	defaultRefreshRetries    = 3
	defaultRefreshRetryWait  = 5 * time.Second
	defaultRefreshTimeout    = 30 * time.Minute

	defaultStorageBackend = "file"
	defaultStorageDir     = "artifacts"
)

// Load reads configuration from environment variables, applying defaults.
// A .env file in the working directory is read first when present; variables
// already set in the environment win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	dataDir := valueOrDefault("DATA_DIR", defaultDataDir)
	cfg := Config{
		HTTP: HTTPConfig{
			Host:            valueOrDefault("SERVER_HOST", defaultHost),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
			StaticDir:       os.Getenv("STATIC_DIR"),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			Colored:       parseBoolWithDefault("LOG_COLOR", false),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Graph: GraphConfig{
			URI:            os.Getenv("GRAPH_URI"),
			Database:       valueOrDefault("GRAPH_DATABASE", ""),
			Username:       os.Getenv("GRAPH_USERNAME"),
			Password:       os.Getenv("GRAPH_PASSWORD"),
			MaxConnections: parseIntWithDefault("GRAPH_MAX_CONNECTIONS", defaultGraphMaxSessions),
			BatchSize:      parseIntWithDefault("GRAPH_BATCH_SIZE", defaultGraphBatchSize),
			Workers:        parseIntWithDefault("GRAPH_WORKERS", defaultGraphWorkers),
			QueryTimeout:   defaultGraphQueryTimeout,
		},
		Dataset: DatasetConfig{
			Path:           valueOrDefault("DATASET_PATH", dataDir+"/"+defaultDatasetFile),
			ReferenceActor: valueOrDefault("BACON_REFERENCE_ACTOR", defaultReferenceActor),
			Watch:          parseBoolWithDefault("DATASET_WATCH", true),
			Source:         strings.ToLower(valueOrDefault("DATASET_SOURCE", "file")),
			Publish:        parseBoolWithDefault("DATASET_PUBLISH", false),
		},
		Build: BuildConfig{
			DataDir:         dataDir,
			TitleBasics:     valueOrDefault("TITLE_BASICS_PATH", dataDir+"/title.basics.tsv"),
			TitlePrincipals: valueOrDefault("TITLE_PRINCIPALS_PATH", dataDir+"/title.principals.tsv"),
			NameBasics:      valueOrDefault("NAME_BASICS_PATH", dataDir+"/name.basics.tsv"),
			Profile:         os.Getenv("BUILD_PROFILE"),
		},
		Refresh: RefreshConfig{
			Enabled:    parseBoolWithDefault("REFRESH_ENABLED", false),
			BaseURL:    strings.TrimRight(valueOrDefault("REFRESH_BASE_URL", defaultRefreshBaseURL), "/"),
			Interval:   defaultRefreshInterval,
			StaleAfter: defaultRefreshStaleAfter,
			MaxRetries: parseIntWithDefault("REFRESH_MAX_RETRIES", defaultRefreshRetries),
			RetryWait:  defaultRefreshRetryWait,
			Timeout:    defaultRefreshTimeout,
		},
		Storage: StorageConfig{
			Backend:   strings.ToLower(valueOrDefault("STORAGE_BACKEND", defaultStorageBackend)),
			Dir:       valueOrDefault("STORAGE_DIR", defaultStorageDir),
			Bucket:    os.Getenv("AWS_BUCKET"),
			Prefix:    os.Getenv("STORAGE_PREFIX"),
			Region:    valueOrDefault("AWS_REGION", "us-east-1"),
			Endpoint:  os.Getenv("AWS_ENDPOINT"),
			AccessKey: os.Getenv("AWS_ACCESS_KEY"),
			SecretKey: os.Getenv("AWS_SECRET_KEY"),
		},
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
		{"GRAPH_QUERY_TIMEOUT", &cfg.Graph.QueryTimeout},
		{"REFRESH_INTERVAL", &cfg.Refresh.Interval},
		{"REFRESH_STALE_AFTER", &cfg.Refresh.StaleAfter},
		{"REFRESH_RETRY_WAIT", &cfg.Refresh.RetryWait},
		{"REFRESH_TIMEOUT", &cfg.Refresh.Timeout},
	}
	for _, d := range durations {
		if err := parseDuration(d.key, d.target); err != nil {
			return Config{}, err
		}
	}

	cfg.HTTP.MetricsEnabled = parseBoolWithDefault("SERVER_METRICS_ENABLED", false)
	cfg.HTTP.AllowedOriginsCSV = os.Getenv("SERVER_ALLOWED_ORIGINS")

	if cfg.Storage.Backend != "file" && cfg.Storage.Backend != "s3" {
		return Config{}, fmt.Errorf("invalid STORAGE_BACKEND %q: want file or s3", cfg.Storage.Backend)
	}

	if cfg.Dataset.Source != "file" && cfg.Dataset.Source != "store" {
		return Config{}, fmt.Errorf("invalid DATASET_SOURCE %q: want file or store", cfg.Dataset.Source)
	}

	if cfg.Build.Profile != "" {
		profile, err := LoadBuildProfile(cfg.Build.Profile)
		if err != nil {
			return Config{}, err
		}
		cfg.Build.Profiled = profile
	}

	return cfg, nil
}

// lookup parses key with parse, falling back when it is unset or malformed.
func lookup[T any](key string, fallback T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	val, err := parse(v)
	if err != nil {
		return fallback
	}
	return val
}

func valueOrDefault(key, fallback string) string {
	return lookup(key, fallback, func(v string) (string, error) { return v, nil })
}

func parseBoolWithDefault(key string, fallback bool) bool {
	return lookup(key, fallback, strconv.ParseBool)
}

func parseIntWithDefault(key string, fallback int) int {
	return lookup(key, fallback, strconv.Atoi)
}

// parseDuration overwrites target only when key is set. Unlike the other
// helpers a malformed value is an error.
func parseDuration(key string, target *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*target = d
	return nil
}

func parsePort(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	port, err := strconv.Atoi(v)
	switch {
	case err != nil:
		return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	case port <= 0 || port > 65535:
		return 0, fmt.Errorf("%s %d is out of range", key, port)
	}
	return port, nil
}
