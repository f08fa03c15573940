package tts

import (
	"fmt"
	"time"
)

// Config contains all synthesis configuration options.
type Config struct {
	// Engine selection
	Engine   string `yaml:"engine" env:"KOE_ENGINE"`
	Fallback string `yaml:"fallback" env:"KOE_FALLBACK"`

	// Default request settings
	Mode     string `yaml:"mode" env:"KOE_MODE"`
	Language string `yaml:"language" env:"KOE_LANGUAGE"`
	Profile  string `yaml:"profile" env:"KOE_PROFILE"`

	// Audio format
	SampleRate int `yaml:"sample_rate" env:"KOE_SAMPLE_RATE"`
	Channels   int `yaml:"channels" env:"KOE_CHANNELS"`
	ChunkSize  int `yaml:"chunk_size" env:"KOE_CHUNK_SIZE"` // samples per chunk

	// Profile persistence
	ProfilesPath string `yaml:"profiles_path" env:"KOE_PROFILES_PATH"`

	// Engine-specific configurations
	Piper  PiperConfig  `yaml:"piper"`
	Remote RemoteConfig `yaml:"remote"`
	Mock   MockConfig   `yaml:"mock"`
}

// PiperConfig contains piper engine specific settings.
type PiperConfig struct {
	Binary     string        `yaml:"binary" env:"KOE_PIPER_BINARY"`
	Model      string        `yaml:"model" env:"KOE_PIPER_MODEL"`
	ConfigPath string        `yaml:"config_path" env:"KOE_PIPER_CONFIG_PATH"`
	SpeakerID  int           `yaml:"speaker_id" env:"KOE_PIPER_SPEAKER_ID"`
	SampleRate int           `yaml:"sample_rate" env:"KOE_PIPER_SAMPLE_RATE"`
	Timeout    time.Duration `yaml:"timeout" env:"KOE_PIPER_TIMEOUT"`
}

// RemoteConfig contains settings for an HTTP synthesis server.
type RemoteConfig struct {
	URL        string        `yaml:"url" env:"KOE_REMOTE_URL"`
	APIKey     string        `yaml:"api_key" env:"KOE_REMOTE_API_KEY"`
	Voice      string        `yaml:"voice" env:"KOE_REMOTE_VOICE"`
	SampleRate int           `yaml:"sample_rate" env:"KOE_REMOTE_SAMPLE_RATE"`
	Timeout    time.Duration `yaml:"timeout" env:"KOE_REMOTE_TIMEOUT"`
}

// MockConfig contains mock engine settings for testing and demos.
type MockConfig struct {
	GenerationDelay time.Duration `yaml:"generation_delay" env:"KOE_MOCK_GENERATION_DELAY"`
	WordsPerMinute  int           `yaml:"words_per_minute" env:"KOE_MOCK_WORDS_PER_MINUTE"`
	FailureRate     float64       `yaml:"failure_rate" env:"KOE_MOCK_FAILURE_RATE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine:     "mock",
		Mode:       "streaming",
		Language:   "auto",
		Profile:    "cute_girl",
		SampleRate: 22050,
		Channels:   1,
		ChunkSize:  1024,
		Piper: PiperConfig{
			Binary:     "piper",
			SampleRate: 22050,
			Timeout:    30 * time.Second,
		},
		Remote: RemoteConfig{
			Voice:      "default",
			SampleRate: 22050,
			Timeout:    15 * time.Second,
		},
		Mock: MockConfig{
			WordsPerMinute: 150,
		},
	}
}

// Validate checks configuration values that must hold for the pipeline
// to run at all.
func (c *Config) Validate() error {
	if c.SampleRate < 8000 || c.SampleRate > 48000 {
		return fmt.Errorf("sample_rate must be between 8000 and 48000, got %d", c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("channels must be 1 or 2, got %d", c.Channels)
	}
	if c.ChunkSize < 64 || c.ChunkSize > 16384 {
		return fmt.Errorf("chunk_size must be between 64 and 16384 samples, got %d", c.ChunkSize)
	}
	if _, err := ParseMode(c.Mode); err != nil {
		return err
	}
	return nil
}

// ChunkBytes returns the configured chunk size in bytes of PCM16.
func (c *Config) ChunkBytes() int {
	return c.ChunkSize * 2 * c.Channels
}
