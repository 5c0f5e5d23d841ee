package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/unirag/campus-rag/assistant"
	"github.com/unirag/campus-rag/common/logger"
	"github.com/unirag/campus-rag/mcpserver"
	"github.com/unirag/campus-rag/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assistant as an MCP server over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closer, err := assistant.OpenStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closer.Close()

		a, err := assistant.New(cfg, assistant.Deps{Store: store})
		if err != nil {
			return err
		}

		if cfg.Metrics.Enabled {
			srv := startMetrics(cfg.Metrics.Listen)
			defer srv.Close()
		}

		logger.Infof("campus-rag %s serving MCP on stdio", version)
		return mcpserver.ServeStdio(a)
	},
}

// startMetrics exposes the assistant collectors on their own registry so
// they are visible before the first request.
func startMetrics(addr string) *http.Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.Collectors()...)
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("metrics listener on %s: %v", addr, err)
		}
	}()
	logger.Infof("metrics listening on %s/metrics", addr)
	return srv
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
