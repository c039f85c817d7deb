package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tcellatlas/internal/config"
	"tcellatlas/internal/geo"
	"tcellatlas/internal/store"
)

var (
	configPath string
	cacheDir   string
	dbPath     string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "tcellatlas",
	Short: "Microarray T-cell expression analysis pipeline",
	Long: "tcellatlas fetches public expression series, tidies their sample metadata,\n" +
		"normalizes raw probe intensities, maps probes to genes, and runs a\n" +
		"differential-expression analysis between two treatment conditions.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to .tcellatlas.yaml config")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache", "", "Cache directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the SQLite store (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

// app bundles the pieces every pipeline stage needs.
type app struct {
	cfg *config.Config
	log *zap.Logger
	geo *geo.Client
}

// newApp discovers and loads configuration, builds the logger, and wires
// the archive client.
func newApp() (*app, error) {
	path, err := config.Discover(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cacheDir != "" {
		cfg.Cache.Dir = cacheDir
	}
	if dbPath != "" {
		cfg.Cache.DatabasePath = dbPath
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	timeout, err := cfg.ArchiveTimeout()
	if err != nil {
		return nil, err
	}

	return &app{
		cfg: cfg,
		log: log,
		geo: geo.NewClient(cfg.Archive.BaseURL, cfg.Archive.AnnotationURL, cfg.Cache.Dir, timeout, log),
	}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

func (a *app) openStore() (*store.DB, error) {
	return store.OpenDB(a.cfg.Cache.DatabasePath)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return nil, fmt.Errorf("invalid logging.level %q: %w", cfg.Level, err)
		}
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}

	log, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return log, nil
}
