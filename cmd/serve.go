package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kozaktomas/attendance/internal/extractor"
	"github.com/kozaktomas/attendance/internal/facematch"
	"github.com/kozaktomas/attendance/internal/metrics"
	"github.com/kozaktomas/attendance/internal/web"
	"github.com/kozaktomas/attendance/internal/web/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the attendance HTTP API.

Kiosks post frames to /api/v1/recognize; dashboards read /api/v1/dashboard
and /api/v1/attendance. Registry and ledger changes require the admin
credential from ADMIN_USERNAME and ADMIN_PASSWORD_HASH (bcrypt).
Prometheus metrics are served on /metrics.

The registry is loaded once at startup. Send SIGHUP to reload it after
registering or deleting identities from another process.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
	serveCmd.Flags().Bool("no-extractor", false, "Reject image uploads instead of calling EXTRACTOR_URL")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}
	if !cfg.Admin.Configured() {
		log.Warn("ADMIN_USERNAME/ADMIN_PASSWORD_HASH not set, administrative routes are disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	eng, backend, err := openEngine(ctx, cfg, metrics.New(promReg))
	if err != nil {
		return err
	}
	defer backend.Close()

	var det handlers.Detector
	if !mustGetBool(cmd, "no-extractor") {
		det = extractor.NewClient(cfg.Embedding.ExtractorURL)
	}
	server := web.NewServer(cfg, eng, det, promReg)

	log.WithFields(log.Fields{
		"backend":   backend.Name,
		"addr":      server.Addr(),
		"extractor": det != nil,
	}).Info("Attendance API starting")
	fmt.Printf("Starting attendance API on http://%s\n", server.Addr())
	fmt.Println("Press Ctrl+C to stop")

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error { return reloadOnSignal(gctx, eng, hup) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

// reloader is satisfied by *engine.Engine
type reloader interface {
	Reload(ctx context.Context) error
	Snapshot() facematch.Registry
}

// reloadOnSignal reloads the registry every time sig fires, so changes made by
// other processes (e.g. the CLI) become visible without a restart. A failed
// reload keeps the current snapshot.
func reloadOnSignal(ctx context.Context, eng reloader, sig <-chan os.Signal) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sig:
			if err := eng.Reload(ctx); err != nil {
				log.WithError(err).Error("Registry reload failed, keeping current snapshot")
				continue
			}
			log.WithField("identities", eng.Snapshot().Count()).Info("Registry reloaded")
		}
	}
}
