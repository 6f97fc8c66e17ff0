package main

import (
	"fmt"

	"github.com/DoyleJ11/quiz-client/internal/config"
	"github.com/DoyleJ11/quiz-client/internal/environment"
	"github.com/DoyleJ11/quiz-client/internal/logging"
	"github.com/DoyleJ11/quiz-client/internal/store"
	"github.com/DoyleJ11/quiz-client/internal/theme"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:           "quizclient",
	Short:         "Quiz game client",
	Long:          "quizclient keeps the connection to the quiz backend and serves session state to the UI.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClient(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to a .env file loaded before reading configuration")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(themeCmd)
}

// deps is what every command needs, built from configuration.
type deps struct {
	cfg    *config.Config
	log    *zap.Logger
	themes *theme.Resolver
	close  func()
}

func setup(cmd *cobra.Command) (*deps, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	prefs, closePrefs, err := openPreferences(cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	env, err := openEnvironment(cfg)
	if err != nil {
		closePrefs()
		_ = log.Sync()
		return nil, err
	}

	var auto *theme.AutoConfig
	if cfg.Theme.AutoSensor != "" {
		auto = &theme.AutoConfig{Sensor: cfg.Theme.AutoSensor, Below: cfg.Theme.AutoBelow}
	}

	return &deps{
		cfg:    cfg,
		log:    log,
		themes: theme.NewResolver(prefs, auto, env, log),
		close: func() {
			closePrefs()
			_ = log.Sync()
		},
	}, nil
}

func openPreferences(cfg *config.Config, log *zap.Logger) (theme.Preferences, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Info("no DATABASE_URL, theme preference kept in memory")
		return store.NewMemory(), func() {}, nil
	}
	s, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return s, func() {
		if err := s.Close(); err != nil {
			log.Warn("close store", zap.Error(err))
		}
	}, nil
}

func openEnvironment(cfg *config.Config) (environment.Provider, error) {
	if cfg.Environment.URL != "" {
		return environment.NewHTTPProvider(cfg.Environment.URL, cfg.Environment.Token), nil
	}
	return environment.ParseStatic(cfg.Environment.Entities)
}
