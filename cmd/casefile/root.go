// ABOUTME: Root command, configuration resolution, and dependency wiring
// ABOUTME: Every subcommand builds its stores through newApp

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/casefile-io/casefile/internal/artifact"
	"github.com/casefile-io/casefile/internal/config"
	"github.com/casefile-io/casefile/internal/insights"
	"github.com/casefile-io/casefile/internal/query"
	"github.com/casefile-io/casefile/internal/runs"
	"github.com/casefile-io/casefile/internal/tracestore"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	output     string
}

var rootCmd = &cobra.Command{
	Use:   "casefile",
	Short: "Investigation store for execution traces",
	Long: "Casefile records analyses, hypotheses, issues, and their trace evidence\n" +
		"for a corpus of execution traces, and serves them to polling UI clients.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", "", "Config file path (default: $CASEFILE_CONFIG, then ~/.config/casefile/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootFlags.output, "output", "o", "table", "Output format: table or json")

	rootCmd.AddCommand(analysisCmd)
	rootCmd.AddCommand(hypothesisCmd)
	rootCmd.AddCommand(issueCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(linksCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(censusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

// configPath resolves the config file location.
// Priority: --config flag > CASEFILE_CONFIG env var > XDG config dir.
func configPath() string {
	if rootFlags.configPath != "" {
		return rootFlags.configPath
	}
	if envPath := os.Getenv("CASEFILE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "casefile", "config.yaml")
}

// dataPath returns the default state directory.
// Priority: XDG_DATA_HOME/casefile > ~/.local/share/casefile
func dataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "casefile")
}

func loadConfig() (*config.Config, error) {
	path := configPath()
	if _, err := os.Stat(path); os.IsNotExist(err) && rootFlags.configPath == "" && os.Getenv("CASEFILE_CONFIG") == "" {
		// No config anywhere: run off local defaults.
		return config.Default(dataPath()), nil
	}
	return config.Load(path)
}

// app holds the wired dependency graph for one CLI invocation.
type app struct {
	cfg      *config.Config
	registry *runs.Registry
	repo     *insights.Repository
	query    *query.Service
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	setupLogger(cfg.Logging)

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	registry, err := runs.NewRegistry(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening run registry: %w", err)
	}

	repo := insights.NewRepository(store, registry)

	var traces tracestore.Reader
	if cfg.TraceStore.BaseURL != "" {
		traces = tracestore.NewClient(cfg.TraceStore.BaseURL, cfg.TraceStore.Timeout)
	}

	return &app{
		cfg:      cfg,
		registry: registry,
		repo:     repo,
		query:    query.NewService(repo, traces),
	}, nil
}

func (a *app) Close() error {
	return a.registry.Close()
}

func buildStore(ctx context.Context, cfg *config.Config) (artifact.Store, error) {
	switch cfg.Storage.Backend {
	case "fs":
		return artifact.NewFSStore(cfg.Storage.Root)
	case "memory":
		return artifact.NewMemoryStore(), nil
	case "s3":
		return artifact.NewS3Store(ctx, artifact.S3Config{
			Bucket:    cfg.Storage.S3.Bucket,
			Region:    cfg.Storage.S3.Region,
			Endpoint:  cfg.Storage.S3.Endpoint,
			PathStyle: cfg.Storage.S3.PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
