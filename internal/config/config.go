package config

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/rotisserie/eris"

	"github.com/couchcryptid/quake-explorer-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Source files.
	DataDir              string
	ProvincesPath        string
	FaultsPath           string
	EventsPath           string
	ProvinceKeyProperty  string
	FaultCatalogProperty string
	FaultCatalogMatch    string
	NameMatching         string

	HTTPAddr           string
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
	FigureCacheSize    int

	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional snapshot export.
	KafkaEnabled        bool
	KafkaBrokers        []string
	KafkaSnapshotTopic  string
	KafkaPublishTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	publishTimeout, err := parseDuration("KAFKA_PUBLISH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	rps, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("RATE_LIMIT_RPS", "50"), 64)
	if err != nil || rps < 0 {
		return nil, eris.New("invalid RATE_LIMIT_RPS")
	}
	burst, err := parseInt("RATE_LIMIT_BURST", "100", 0)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseInt("FIGURE_CACHE_SIZE", "256", 0)
	if err != nil {
		return nil, err
	}

	kafkaEnabled, err := strconv.ParseBool(sharedcfg.EnvOrDefault("KAFKA_ENABLED", "false"))
	if err != nil {
		return nil, eris.New("invalid KAFKA_ENABLED")
	}

	dataDir := sharedcfg.EnvOrDefault("DATA_DIR", "data")

	cfg := &Config{
		DataDir:              dataDir,
		ProvincesPath:        sharedcfg.EnvOrDefault("PROVINCES_PATH", filepath.Join(dataDir, "ph_provinces.geojson")),
		FaultsPath:           sharedcfg.EnvOrDefault("FAULTS_PATH", filepath.Join(dataDir, "gem_active_faults.geojson")),
		EventsPath:           sharedcfg.EnvOrDefault("EVENTS_CSV_PATH", filepath.Join(dataDir, "[POP] FINAL_merged_earthquake_data.csv")),
		ProvinceKeyProperty:  sharedcfg.EnvOrDefault("PROVINCE_KEY_PROPERTY", "adm2_en"),
		FaultCatalogProperty: sharedcfg.EnvOrDefault("FAULT_CATALOG_PROPERTY", "catalog_name"),
		FaultCatalogMatch:    sharedcfg.EnvOrDefault("FAULT_CATALOG_MATCH", "Philippines"),
		NameMatching:         sharedcfg.EnvOrDefault("NAME_MATCHING", domain.NameMatchingCanonical),

		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8050"),
		CORSAllowedOrigins: splitList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		RateLimitRPS:       rps,
		RateLimitBurst:     burst,
		FigureCacheSize:    cacheSize,

		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:        kafkaEnabled,
		KafkaBrokers:        sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSnapshotTopic:  sharedcfg.EnvOrDefault("KAFKA_SNAPSHOT_TOPIC", "quake-explorer-snapshots"),
		KafkaPublishTimeout: publishTimeout,
	}

	if cfg.ProvinceKeyProperty == "" {
		return nil, eris.New("PROVINCE_KEY_PROPERTY is required")
	}
	if cfg.FaultCatalogProperty == "" {
		return nil, eris.New("FAULT_CATALOG_PROPERTY is required")
	}
	if _, err := domain.NewNameMatcher(cfg.NameMatching); err != nil {
		return nil, eris.Wrap(err, "invalid NAME_MATCHING")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, eris.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSnapshotTopic == "" {
			return nil, eris.New("KAFKA_SNAPSHOT_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

// NameMatcher returns the matcher selected by NAME_MATCHING.
func (c *Config) NameMatcher() domain.NameMatcher {
	m, err := domain.NewNameMatcher(c.NameMatching)
	if err != nil {
		return domain.CanonicalNames
	}
	return m
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, eris.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key, def string, minimum int) (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil || n < minimum {
		return 0, eris.Errorf("invalid %s", key)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
