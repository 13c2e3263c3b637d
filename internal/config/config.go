package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var modelsYAML []byte

type Config struct {
	Extractor ExtractorConfig
	Matching  MatchingConfig
	Database  DatabaseConfig
	MQTT      MQTTConfig
	Models    ModelsConfig
}

type ExtractorConfig struct {
	URL     string        // embedding server base URL, defaults to http://localhost:8000
	Model   string        // model pack name, for reference only (e.g. buffalo_l)
	Dim     int           // expected embedding dimension, must match model output
	Timeout time.Duration // per-call timeout for detection requests
}

type MatchingConfig struct {
	Threshold           float64       // maximum cosine distance for an accepted match
	RecognitionInterval time.Duration // how often to re-run recognition per track
	TrackGracePeriod    time.Duration // how long an unobserved track survives
	CandidateK          int           // nearest-neighbor candidates fetched per query
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type MQTTConfig struct {
	Broker   string // broker URL (e.g. tcp://localhost:1883); empty disables publishing
	ClientID string
	Topic    string // topic prefix for authentication events
}

type ModelsConfig struct {
	Models map[string]ModelInfo `yaml:"models"`
}

// ModelInfo describes a known embedding model pack.
type ModelInfo struct {
	Dim        int    `yaml:"dim"`
	Pretrained string `yaml:"pretrained,omitempty"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envDuration reads an environment variable and parses it as a duration (e.g. "5s").
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var models ModelsConfig
	if err := yaml.Unmarshal(modelsYAML, &models); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded models.yaml: " + err.Error())
	}

	cfg := &Config{
		Extractor: ExtractorConfig{
			URL:     os.Getenv("EXTRACTOR_URL"),
			Model:   envString("EXTRACTOR_MODEL", "buffalo_l"),
			Dim:     envInt("EMBEDDING_DIM", 0),
			Timeout: envDuration("EXTRACTOR_TIMEOUT", 10*time.Second),
		},
		Matching: MatchingConfig{
			Threshold:           envFloat("MATCH_THRESHOLD", 0.5),
			RecognitionInterval: envDuration("RECOGNITION_INTERVAL", 5*time.Second),
			TrackGracePeriod:    envDuration("TRACK_GRACE_PERIOD", 10*time.Second),
			CandidateK:          envInt("MATCH_CANDIDATES", 5),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		MQTT: MQTTConfig{
			Broker:   os.Getenv("MQTT_BROKER"),
			ClientID: envString("MQTT_CLIENT_ID", "face-authentication"),
			Topic:    envString("MQTT_TOPIC", "faceauth/events"),
		},
		Models: models,
	}

	// EMBEDDING_DIM overrides; otherwise take the dimension of the configured model pack.
	if cfg.Extractor.Dim == 0 {
		cfg.Extractor.Dim = cfg.ModelDim(cfg.Extractor.Model)
	}

	return cfg
}

// ModelDim returns the embedding dimension for a known model pack,
// falling back to 512 for unknown models (the InsightFace default).
func (c *Config) ModelDim(model string) int {
	if info, ok := c.Models.Models[model]; ok && info.Dim > 0 {
		return info.Dim
	}
	return 512
}
