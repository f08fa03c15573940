package tts

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

// LoadConfigFromViper loads synthesis configuration from Viper,
// starting from defaults so partial config files work. KOE_*
// environment variables win over config file values.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("tts.engine") {
		cfg.Engine = viper.GetString("tts.engine")
	}
	if viper.IsSet("tts.fallback") {
		cfg.Fallback = viper.GetString("tts.fallback")
	}
	if viper.IsSet("tts.mode") {
		cfg.Mode = viper.GetString("tts.mode")
	}
	if viper.IsSet("tts.language") {
		cfg.Language = viper.GetString("tts.language")
	}
	if viper.IsSet("tts.profile") {
		cfg.Profile = viper.GetString("tts.profile")
	}
	if viper.IsSet("tts.sample_rate") {
		cfg.SampleRate = viper.GetInt("tts.sample_rate")
	}
	if viper.IsSet("tts.channels") {
		cfg.Channels = viper.GetInt("tts.channels")
	}
	if viper.IsSet("tts.chunk_size") {
		cfg.ChunkSize = viper.GetInt("tts.chunk_size")
	}
	if viper.IsSet("tts.profiles_path") {
		cfg.ProfilesPath = viper.GetString("tts.profiles_path")
	}

	// Piper engine
	if viper.IsSet("tts.piper.binary") {
		cfg.Piper.Binary = viper.GetString("tts.piper.binary")
	}
	if viper.IsSet("tts.piper.model") {
		cfg.Piper.Model = viper.GetString("tts.piper.model")
	}
	if viper.IsSet("tts.piper.config_path") {
		cfg.Piper.ConfigPath = viper.GetString("tts.piper.config_path")
	}
	if viper.IsSet("tts.piper.speaker_id") {
		cfg.Piper.SpeakerID = viper.GetInt("tts.piper.speaker_id")
	}
	if viper.IsSet("tts.piper.sample_rate") {
		cfg.Piper.SampleRate = viper.GetInt("tts.piper.sample_rate")
	}
	if viper.IsSet("tts.piper.timeout") {
		cfg.Piper.Timeout = viper.GetDuration("tts.piper.timeout")
	}

	// Remote engine
	if viper.IsSet("tts.remote.url") {
		cfg.Remote.URL = viper.GetString("tts.remote.url")
	}
	if viper.IsSet("tts.remote.api_key") {
		cfg.Remote.APIKey = viper.GetString("tts.remote.api_key")
	}
	if viper.IsSet("tts.remote.voice") {
		cfg.Remote.Voice = viper.GetString("tts.remote.voice")
	}
	if viper.IsSet("tts.remote.sample_rate") {
		cfg.Remote.SampleRate = viper.GetInt("tts.remote.sample_rate")
	}
	if viper.IsSet("tts.remote.timeout") {
		cfg.Remote.Timeout = viper.GetDuration("tts.remote.timeout")
	}

	// Mock engine
	if viper.IsSet("tts.mock.generation_delay") {
		cfg.Mock.GenerationDelay = viper.GetDuration("tts.mock.generation_delay")
	}
	if viper.IsSet("tts.mock.words_per_minute") {
		cfg.Mock.WordsPerMinute = viper.GetInt("tts.mock.words_per_minute")
	}
	if viper.IsSet("tts.mock.failure_rate") {
		cfg.Mock.FailureRate = viper.GetFloat64("tts.mock.failure_rate")
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}

	if cfg.Piper.Timeout <= 0 {
		cfg.Piper.Timeout = 30 * time.Second
	}
	if cfg.Remote.Timeout <= 0 {
		cfg.Remote.Timeout = 15 * time.Second
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
