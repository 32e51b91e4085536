package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/quorum/internal/config"
	"github.com/dshills/quorum/internal/github"
	"github.com/dshills/quorum/internal/logx"
	"github.com/dshills/quorum/internal/review"
	"github.com/dshills/quorum/internal/server"
)

var (
	flagHost string
	flagPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the review HTTP API",
	Long:  "Serve the review API: POST /api/v1/review/diff, POST /api/v1/review/pr, GET /api/v1/agents, GET /api/v1/stats, GET /api/v1/health.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides := buildOverrides()
		if flagHost != "" {
			overrides["server.host"] = flagHost
		}
		if flagPort > 0 {
			overrides["server.port"] = strconv.Itoa(flagPort)
		}
		cfg, err := config.Load(overrides)
		if err != nil {
			return err
		}
		if flagLogLevel == "" && os.Getenv("QUORUM_LOG_LEVEL") == "" {
			if _, err := logx.Setup(cfg.LogLevel, !flagNoColor); err != nil {
				return err
			}
		}

		ghClient, err := github.NewClient(cfg.GitHub.Token, cfg.GitHub.APIURL)
		if err != nil {
			return err
		}
		svc, err := buildService(cfg, ghClient)
		if err != nil {
			failWith(err)
			return nil
		}

		srv := server.New(svc, server.Options{
			Version:            version,
			Host:               cfg.Server.Host,
			Port:               cfg.Server.Port,
			RateLimitEnabled:   cfg.Server.RateLimitEnabled,
			RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
			ReviewTimeout:      time.Duration(cfg.Server.ReviewTimeoutSeconds) * time.Second,
			SourceForToken: func(token string) (review.PRSource, error) {
				return github.NewClient(token, cfg.GitHub.APIURL)
			},
		})

		ctx, cancel := signalContext()
		defer cancel()

		fmt.Fprintf(os.Stderr, "quorum %s serving on http://%s\n", version, srv.Addr())
		if err := srv.ListenAndServe(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
		}
		return nil
	},
}

func init() {
	addAnalyzerFlags(serveCmd)
	serveCmd.Flags().StringVar(&flagHost, "host", "", "Listen host (default from config: 0.0.0.0)")
	serveCmd.Flags().IntVar(&flagPort, "port", 0, "Listen port (default from config: 8000)")
}
