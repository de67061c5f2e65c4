// Package cmd is the cadscript command tree.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dslh/cadscript-mcp/internal/config"
	"github.com/dslh/cadscript-mcp/internal/logger"
	"github.com/dslh/cadscript-mcp/internal/metrics"
	"github.com/dslh/cadscript-mcp/internal/persistence"
	"github.com/dslh/cadscript-mcp/internal/registry"
	"github.com/dslh/cadscript-mcp/internal/render"
	"github.com/dslh/cadscript-mcp/internal/script"
	"github.com/dslh/cadscript-mcp/internal/service"
)

const version = "0.1.0"

var (
	cfgFile      string
	logLevel     string
	registryFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cadscript",
	Short: "Turn CAD tool calls into Fusion 360 Python scripts",
	Long: `cadscript translates ordered CAD tool calls (CreateSketch, Extrude,
Fillet, ...) into a self-contained Fusion 360 Python script. It serves the
tools over MCP stdio or HTTP, or generates scripts from a file.`,
	Version:      version,
	SilenceUsage: true,
}

// Execute runs the root command. It is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.cadscript/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&registryFile, "registry", "", "tool registry file (default is the built-in registry)")

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// app is the wired generation stack shared by the subcommands
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	metrics   *metrics.Metrics
	generator *service.Generator
	store     *persistence.Store
}

func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if registryFile != "" {
		cfg.Registry = registryFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
		Pretty: cfg.Log.Pretty,
	})
	if err != nil {
		return nil, err
	}

	reg, err := loadRegistry(cfg.Registry)
	if err != nil {
		log.Close()
		return nil, err
	}
	assembler, err := script.New(reg, render.New(render.WithExportDir(cfg.ExportDir)))
	if err != nil {
		log.Close()
		return nil, err
	}

	m := metrics.NewMetrics()
	return &app{
		cfg:       cfg,
		log:       log,
		metrics:   m,
		generator: service.New(assembler, service.WithMetrics(m), service.WithLogger(log.Zerolog())),
		store:     persistence.NewStore(cfg.ScriptsDir),
	}, nil
}

func loadRegistry(path string) (*registry.Registry, error) {
	if path == "" {
		return registry.Default()
	}
	return registry.LoadFile(path)
}

func (a *app) close() {
	a.log.Close()
}
