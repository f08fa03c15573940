// Package main provides the entry point for the koe CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/koe-sh/koe/audio"
	"github.com/koe-sh/koe/chat"
	"github.com/koe-sh/koe/host"
	"github.com/koe-sh/koe/lang"
	"github.com/koe-sh/koe/persona"
	"github.com/koe-sh/koe/tts"
	"github.com/koe-sh/koe/tts/engines/mock"
	"github.com/koe-sh/koe/tts/engines/piper"
	"github.com/koe-sh/koe/tts/engines/remote"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile   string
	engineName   string
	fallbackName string
	profileName  string
	modeName     string
	languageName string
	outputPath   string

	roomID       string
	roomToken    string
	personaName  string
	asmrMode     string
	roleplayName string
	noGreeting   bool
	statsEvery   time.Duration

	rootCmd = &cobra.Command{
		Use:           "koe",
		Short:         "Personality-driven voice host for live streaming",
		Long:          "\nSynthesize speech with switchable engines and personalities, and run live chat-driven voice sessions.",
		SilenceErrors: false,
		SilenceUsage:  true,
	}

	speakCmd = &cobra.Command{
		Use:   "speak [TEXT]",
		Short: "Synthesize text and play it",
		Long:  "\nSynthesize the given text (or stdin with -) through the configured engine and play it. Use --output to write raw PCM instead of playing.",
		Args:  cobra.ArbitraryArgs,
		RunE:  runSpeak,
	}

	hostCmd = &cobra.Command{
		Use:   "host",
		Short: "Run a live voice session driven by chat",
		Long:  "\nConnect to a live chat room and voice replies through the active personality. Without --room the session idles and only speaks the greeting.",
		Args:  cobra.NoArgs,
		RunE:  runHost,
	}

	enginesCmd = &cobra.Command{
		Use:   "engines",
		Short: "List synthesis engines",
		Args:  cobra.NoArgs,
		RunE:  runEngines,
	}

	profilesCmd = &cobra.Command{
		Use:   "profiles [NAME]",
		Short: "List voice profiles or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runProfiles,
	}

	personasCmd = &cobra.Command{
		Use:   "personas",
		Short: "List personalities and ASMR modes",
		Args:  cobra.NoArgs,
		RunE:  runPersonas,
	}
)

// loadTTSConfig reads the synthesis config from viper and applies any
// command line overrides.
func loadTTSConfig(cmd *cobra.Command) (tts.Config, error) {
	cfg, err := tts.LoadConfigFromViper()
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("engine") {
		cfg.Engine = engineName
	}
	if cmd.Flags().Changed("fallback") {
		cfg.Fallback = fallbackName
	}
	if cmd.Flags().Changed("profile") {
		cfg.Profile = profileName
	}
	if cmd.Flags().Changed("mode") {
		cfg.Mode = modeName
	}
	if cmd.Flags().Changed("language") {
		cfg.Language = languageName
	}
	return cfg, cfg.Validate()
}

// newEngine constructs the adapter for a configured engine name.
func newEngine(name string, cfg *tts.Config) (tts.Engine, error) {
	switch name {
	case "mock":
		return mock.New(cfg.Mock, cfg.SampleRate, cfg.ChunkBytes()), nil
	case "piper":
		return piper.New(cfg.Piper, cfg.ChunkBytes()), nil
	case "remote":
		return remote.New(cfg.Remote), nil
	default:
		return nil, fmt.Errorf("unknown engine %q (available: mock, piper, remote)", name)
	}
}

// buildManager registers the configured primary and fallback engines.
// A fallback that fails to load is logged and skipped; a primary that
// fails to load is fatal.
func buildManager(cfg *tts.Config) (*tts.Manager, error) {
	m := tts.NewManager(cfg.ChunkBytes())

	names := []string{cfg.Engine}
	if cfg.Fallback != "" && cfg.Fallback != cfg.Engine {
		names = append(names, cfg.Fallback)
	}
	for _, name := range names {
		e, err := newEngine(name, cfg)
		if err != nil {
			m.Close()
			return nil, err
		}
		if err := m.Register(e); err != nil {
			if name == cfg.Engine {
				m.Close()
				return nil, fmt.Errorf("loading engine %q: %w", name, err)
			}
			log.Warn("fallback engine failed to load", "engine", name, "err", err)
		}
	}

	if err := m.SwitchEngine(cfg.Engine); err != nil {
		m.Close()
		return nil, err
	}
	if cfg.Fallback != "" && cfg.Fallback != cfg.Engine {
		if err := m.SetFallback(cfg.Fallback); err != nil {
			log.Warn("fallback engine unavailable", "engine", cfg.Fallback, "err", err)
		}
	}

	if cfg.ProfilesPath != "" {
		if err := m.LoadProfiles(cfg.ProfilesPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("loading voice profiles", "path", cfg.ProfilesPath, "err", err)
		}
	}
	if err := m.SetProfile(cfg.Profile); err != nil {
		suggestion := suggest(cfg.Profile, m.Profiles())
		m.Close()
		if suggestion != "" {
			return nil, fmt.Errorf("%w (did you mean %q?)", err, suggestion)
		}
		return nil, err
	}
	return m, nil
}

// suggest returns the closest fuzzy match for an unknown name.
func suggest(input string, candidates []string) string {
	matches := fuzzy.Find(input, candidates)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}

func textFromArgs(args []string) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	return strings.Join(args, " "), nil
}

func runSpeak(cmd *cobra.Command, args []string) error {
	cfg, err := loadTTSConfig(cmd)
	if err != nil {
		return err
	}
	text, err := textFromArgs(args)
	if err != nil {
		return err
	}
	if text == "" {
		return errors.New("nothing to speak")
	}

	manager, err := buildManager(&cfg)
	if err != nil {
		return err
	}
	defer manager.Close() //nolint:errcheck

	mode, err := tts.ParseMode(cfg.Mode)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if outputPath != "" {
		return speakToFile(ctx, manager, text, cfg.Language)
	}

	device := audio.NewDevice(cfg.SampleRate, cfg.Channels, cfg.ChunkSize)
	sink := audio.NewSink(audio.Config{
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
		ChunkSize:  cfg.ChunkSize,
	}, device)
	if err := sink.Start(); err != nil {
		return err
	}
	defer sink.Stop()

	result, err := manager.Synthesize(ctx, tts.Request{
		Text:     text,
		Language: cfg.Language,
		Mode:     mode,
	})
	if err != nil {
		return err
	}

	if result.Stream != nil {
		for chunk := range result.Stream {
			sink.Enqueue(chunk.Data)
		}
	} else {
		sink.Enqueue(result.Audio.Data)
	}
	return drain(ctx, sink)
}

// drain waits for the sink queue to empty, plus a grace period for
// the device's internal buffer.
func drain(ctx context.Context, sink *audio.Sink) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if sink.Stats().QueueDepth == 0 {
				time.Sleep(200 * time.Millisecond)
				return nil
			}
		}
	}
}

func speakToFile(ctx context.Context, manager *tts.Manager, text, language string) error {
	result, err := manager.Synthesize(ctx, tts.Request{
		Text:     text,
		Language: language,
		Mode:     tts.ModeBatch,
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, result.Audio.Data, 0o644); err != nil {
		return fmt.Errorf("writing audio: %w", err)
	}
	fmt.Printf("Wrote %d bytes of PCM to %s (%s via %s)\n",
		len(result.Audio.Data), outputPath, result.Audio.Duration().Round(time.Millisecond), result.Engine)
	return nil
}

func runHost(cmd *cobra.Command, _ []string) error {
	cfg, err := loadTTSConfig(cmd)
	if err != nil {
		return err
	}
	manager, err := buildManager(&cfg)
	if err != nil {
		return err
	}
	defer manager.Close() //nolint:errcheck

	personas := persona.NewManager()
	if personaName != "" {
		if err := personas.Set(personaName); err != nil {
			if s := suggest(personaName, personas.Names()); s != "" {
				return fmt.Errorf("%w (did you mean %q?)", err, s)
			}
			return err
		}
	}
	asmr := persona.NewASMRManager()
	if asmrMode != "" {
		if err := asmr.Set(asmrMode); err != nil {
			if s := suggest(asmrMode, asmr.Names()); s != "" {
				return fmt.Errorf("%w (did you mean %q?)", err, s)
			}
			return err
		}
	}
	roleplay := persona.NewRoleplayManager()
	if roleplayName != "" {
		if err := roleplay.Set(roleplayName); err != nil {
			if s := suggest(roleplayName, roleplay.Names()); s != "" {
				return fmt.Errorf("%w (did you mean %q?)", err, s)
			}
			return err
		}
	}

	var client *chat.Client
	if roomID != "" {
		chatCfg := chat.DefaultConfig(roomID)
		chatCfg.Token = roomToken
		client = chat.NewClient(chatCfg)
	}

	mode, err := tts.ParseMode(cfg.Mode)
	if err != nil {
		return err
	}

	device := audio.NewDevice(cfg.SampleRate, cfg.Channels, cfg.ChunkSize)
	sink := audio.NewSink(audio.Config{
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
		ChunkSize:  cfg.ChunkSize,
	}, device)

	h := host.New(host.Config{
		Language:      lang.Parse(cfg.Language),
		Mode:          mode,
		StatsInterval: statsEvery,
		Greeting:      !noGreeting,
	}, manager, sink, personas, asmr, roleplay, client)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = h.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runEngines(cmd *cobra.Command, _ []string) error {
	cfg, err := loadTTSConfig(cmd)
	if err != nil {
		return err
	}
	manager, err := buildManager(&cfg)
	if err != nil {
		return err
	}
	defer manager.Close() //nolint:errcheck

	current := manager.CurrentEngine()
	for _, info := range manager.Engines() {
		marker := " "
		if info.Name == current {
			marker = "*"
		}
		var caps []string
		if info.Capabilities.Batch {
			caps = append(caps, "batch")
		}
		if info.Capabilities.Incremental {
			caps = append(caps, "incremental")
		}
		if info.Capabilities.LowLatency {
			caps = append(caps, "low-latency")
		}
		fmt.Printf("%s %-10s %-10s %s\n", marker, info.Name, info.State, strings.Join(caps, ","))
	}
	return nil
}

func runProfiles(cmd *cobra.Command, args []string) error {
	cfg, err := loadTTSConfig(cmd)
	if err != nil {
		return err
	}
	manager, err := buildManager(&cfg)
	if err != nil {
		return err
	}
	defer manager.Close() //nolint:errcheck

	if len(args) == 1 {
		p, err := manager.ProfileByName(args[0])
		if err != nil {
			if s := suggest(args[0], manager.Profiles()); s != "" {
				return fmt.Errorf("%w (did you mean %q?)", err, s)
			}
			return err
		}
		fmt.Printf("%s\n  gender: %s\n  age: %s\n  pitch: %.2f\n  speed: %.2f\n  emotion: %s\n",
			p.Name, p.Gender, p.AgeRange, p.Pitch, p.Speed, p.Emotion)
		return nil
	}

	current := manager.CurrentProfile().Name
	for _, name := range manager.Profiles() {
		marker := " "
		if name == current {
			marker = "*"
		}
		p, _ := manager.ProfileByName(name)
		fmt.Printf("%s %-16s pitch=%.2f speed=%.2f emotion=%s\n", marker, name, p.Pitch, p.Speed, p.Emotion)
	}
	return nil
}

func runPersonas(*cobra.Command, []string) error {
	personas := persona.NewManager()
	current := personas.Current().Name
	fmt.Println("Personalities:")
	for _, name := range personas.Names() {
		marker := " "
		if name == current {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, name)
	}

	asmr := persona.NewASMRManager()
	fmt.Println("\nASMR modes:")
	for _, name := range asmr.Names() {
		fmt.Printf("  %s\n", name)
	}

	roleplay := persona.NewRoleplayManager()
	fmt.Println("\nRoleplay scenarios:")
	for _, name := range roleplay.Names() {
		s, _ := roleplay.Info(name)
		fmt.Printf("  %-16s %s (%s)\n", name, s.DisplayName, s.Role)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))

	for _, cmd := range []*cobra.Command{speakCmd, hostCmd, enginesCmd, profilesCmd} {
		cmd.Flags().StringVarP(&engineName, "engine", "e", "", "synthesis engine (mock, piper, remote)")
		cmd.Flags().StringVar(&fallbackName, "fallback", "", "fallback engine on synthesis failure")
		cmd.Flags().StringVarP(&profileName, "profile", "p", "", "voice profile")
		cmd.Flags().StringVarP(&modeName, "mode", "m", "", "synthesis mode (batch, streaming, realtime)")
		cmd.Flags().StringVarP(&languageName, "language", "l", "", "utterance language (auto, zh, en, ...)")
	}
	speakCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write raw PCM to file instead of playing")

	hostCmd.Flags().StringVar(&roomID, "room", "", "live chat room id")
	hostCmd.Flags().StringVar(&roomToken, "token", "", "live chat auth token")
	hostCmd.Flags().StringVar(&personaName, "persona", "", "active personality")
	hostCmd.Flags().StringVar(&asmrMode, "asmr", "", "ASMR mode (overrides personality voice)")
	hostCmd.Flags().StringVar(&roleplayName, "roleplay", "", "roleplay scenario (overrides personality voice)")
	hostCmd.Flags().BoolVar(&noGreeting, "no-greeting", false, "skip the opening greeting")
	hostCmd.Flags().DurationVar(&statsEvery, "stats", 30*time.Second, "stats log interval (0 to disable)")

	rootCmd.AddCommand(speakCmd, hostCmd, enginesCmd, profilesCmd, personasCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "koe")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "koe")}, dirs...)
	}

	if c := os.Getenv("KOE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("koe")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("koe")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "koe.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
