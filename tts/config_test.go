package tts

import (
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"sample rate too low", func(c *Config) { c.SampleRate = 4000 }, true},
		{"sample rate too high", func(c *Config) { c.SampleRate = 96000 }, true},
		{"sample rate at bounds", func(c *Config) { c.SampleRate = 48000 }, false},
		{"three channels", func(c *Config) { c.Channels = 3 }, true},
		{"stereo", func(c *Config) { c.Channels = 2 }, false},
		{"chunk too small", func(c *Config) { c.ChunkSize = 32 }, true},
		{"chunk too large", func(c *Config) { c.ChunkSize = 32768 }, true},
		{"bad mode", func(c *Config) { c.Mode = "turbo" }, true},
		{"batch mode", func(c *Config) { c.Mode = "batch" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("KOE_ENGINE", "piper")
	t.Setenv("KOE_CHUNK_SIZE", "2048")
	t.Setenv("KOE_PIPER_TIMEOUT", "5s")

	cfg, err := LoadConfigFromViper()
	if err != nil {
		t.Fatalf("LoadConfigFromViper() = %v", err)
	}
	if cfg.Engine != "piper" {
		t.Errorf("Engine = %q, want piper from KOE_ENGINE", cfg.Engine)
	}
	if cfg.ChunkSize != 2048 {
		t.Errorf("ChunkSize = %d, want 2048 from KOE_CHUNK_SIZE", cfg.ChunkSize)
	}
	if cfg.Piper.Timeout != 5*time.Second {
		t.Errorf("Piper.Timeout = %v, want 5s from KOE_PIPER_TIMEOUT", cfg.Piper.Timeout)
	}
	// Untouched fields keep their defaults.
	if cfg.Mode != "streaming" {
		t.Errorf("Mode = %q, want the streaming default", cfg.Mode)
	}
}

func TestConfigChunkBytes(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.ChunkBytes(); got != 1024*2 {
		t.Errorf("ChunkBytes() = %d, want %d", got, 1024*2)
	}
	cfg.Channels = 2
	if got := cfg.ChunkBytes(); got != 1024*2*2 {
		t.Errorf("stereo ChunkBytes() = %d, want %d", got, 1024*2*2)
	}
}
