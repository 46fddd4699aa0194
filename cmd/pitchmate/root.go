package main

import (
	"context"
	"strings"

	"github.com/gulaysahinn/pitchmate-pro/internal/config"
	"github.com/gulaysahinn/pitchmate-pro/internal/log"
	"github.com/gulaysahinn/pitchmate-pro/pkg/debug"
	"github.com/gulaysahinn/pitchmate-pro/pkg/pitchmate"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Viper keys shared by flags and PITCHMATE_* environment variables
const (
	keyConfig    = "config"
	keyLogLevel  = "log-level"
	keyLogJSON   = "log-json"
	keyLanguage  = "language"
	keyDB        = "db"
	keyDetector  = "detector"
	keyNoSpeech  = "no-speech"
	keyFrames    = "debug-frames"
	keyAddr      = "addr"
	keyUploadDir = "upload-dir"
	keyMaxJobs   = "max-analyses"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("PITCHMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "pitchmate",
		Short:         "Presentation delivery analyzer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String(keyConfig, "", "YAML config file")
	pf.String(keyLogLevel, "", "log level: debug, info, warn, error")
	pf.Bool(keyLogJSON, false, "log as JSON")
	pf.String(keyLanguage, "", "recommendation language: tr, en")
	pf.String(keyDB, "", "SQLite database path")
	pf.String(keyDetector, "", "face detector: haar, yunet")
	pf.Bool(keyNoSpeech, false, "skip transcription")
	pf.Bool(keyFrames, false, "log every detected face (very verbose)")
	v.BindPFlags(pf)

	root.AddCommand(
		newAnalyzeCmd(v),
		newServeCmd(v),
		newHistoryCmd(v),
	)
	return root
}

// loadConfig layers defaults, the YAML file, environment variables and
// finally flags, then sets up logging.
func loadConfig(v *viper.Viper) (config.Config, error) {
	cfg, err := config.Load(v.GetString(keyConfig))
	if err != nil {
		return cfg, err
	}

	if v.IsSet(keyLogLevel) {
		cfg.Log.Level = v.GetString(keyLogLevel)
	}
	if v.IsSet(keyLogJSON) {
		cfg.Log.JSON = v.GetBool(keyLogJSON)
	}
	if v.IsSet(keyLanguage) {
		cfg.Language = v.GetString(keyLanguage)
		if cfg.Language == "en" && cfg.Speech.LanguageCode == "tr-TR" {
			cfg.Speech.LanguageCode = "en-US"
		}
	}
	if v.IsSet(keyDB) {
		cfg.Store.Path = v.GetString(keyDB)
	}
	if v.IsSet(keyDetector) {
		cfg.Detector.Kind = v.GetString(keyDetector)
	}
	if v.GetBool(keyNoSpeech) {
		cfg.Speech.Disabled = true
	}
	if v.IsSet(keyAddr) {
		cfg.Server.Addr = v.GetString(keyAddr)
	}
	if v.IsSet(keyUploadDir) {
		cfg.Server.UploadDir = v.GetString(keyUploadDir)
	}
	if v.IsSet(keyMaxJobs) {
		cfg.Server.MaxConcurrent = v.GetInt(keyMaxJobs)
	}

	log.InitFormat(cfg.Log.Level, cfg.Log.JSON)
	debug.Enabled = cfg.Log.Level == "debug"
	debug.Tracking = v.GetBool(keyFrames)
	return cfg, cfg.Validate()
}

// startApp loads configuration and initializes the pipeline
func startApp(ctx context.Context, v *viper.Viper, withStore bool) (*pitchmate.App, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, err
	}
	app, err := pitchmate.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := app.Init(ctx, withStore); err != nil {
		app.Shutdown()
		return nil, err
	}
	return app, nil
}
