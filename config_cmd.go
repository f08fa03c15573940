package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# Synthesis configuration
tts:
  # Engine: mock, piper, or remote
  engine: "mock"
  # Fallback engine used once per request when the primary fails
  # fallback: "mock"

  # Synthesis mode: batch, streaming, or realtime
  mode: "streaming"
  # Utterance language: auto, zh, en, ja, ko
  language: "auto"
  # Default voice profile
  profile: "cute_girl"

  # Audio format
  sample_rate: 22050
  channels: 1
  # Chunk size in samples; retuned at runtime between 256 and 4096
  chunk_size: 1024

  # Extra voice profiles, saved with 'koe profiles'
  # profiles_path: "~/.config/koe/profiles.yml"

  # Piper engine configuration
  piper:
    binary: "piper"
    # model: "/path/to/model.onnx"
    # config_path: "/path/to/model.onnx.json"
    speaker_id: 0
    sample_rate: 22050
    timeout: "30s"

  # Remote HTTP engine configuration
  remote:
    # url: "http://localhost:8880/v1/audio/speech"
    # api_key: "your-api-key-here"
    voice: "default"
    sample_rate: 22050
    timeout: "15s"

  # Mock engine configuration (for testing and demos)
  mock:
    generation_delay: "0ms"
    words_per_minute: 150
    failure_rate: 0.0
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the koe config file",
	Long:    "\nEdit the koe config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.",
	Example: "koe config\nkoe config --config path/to/config.yml",
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("koe", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
