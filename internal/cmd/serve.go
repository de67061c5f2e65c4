package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dslh/cadscript-mcp/internal/server"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve script generation over HTTP",
	Long: `Serve the HTTP JSON API: GET /tools, POST /call_tool, POST /call_tools,
GET /healthz and GET /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (overrides http.host)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides http.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if serveHost != "" {
		a.cfg.HTTP.Host = serveHost
	}
	if servePort != 0 {
		a.cfg.HTTP.Port = servePort
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(a.generator,
		server.WithMetrics(a.metrics),
		server.WithLogger(a.log.Zerolog()),
	)
	return srv.ListenAndServe(ctx, a.cfg.HTTP.Addr())
}
