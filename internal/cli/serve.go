package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jordannaegle/mnemo/internal/server"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	db, eng, cfg, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	// Run decay once at startup, then on the configured cron cadence. The
	// engine itself carries no timer.
	if result, err := eng.RunDecay(); err != nil {
		log.Printf("decay error: %v", err)
	} else if result.Updated > 0 || result.Deleted > 0 {
		log.Printf("decay: %d updated, %d evicted", result.Updated, result.Deleted)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Maintenance.DecaySchedule, func() {
		if result, err := eng.RunDecay(); err != nil {
			log.Printf("decay error: %v", err)
		} else if result.Updated > 0 || result.Deleted > 0 {
			log.Printf("decay: %d updated, %d evicted", result.Updated, result.Deleted)
		}
	}); err != nil {
		return fmt.Errorf("decay schedule %q: %w", cfg.Maintenance.DecaySchedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := server.New(db, eng, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "mnemo serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", db.Path)
		fmt.Fprintf(os.Stderr, "  decay schedule: %s\n", cfg.Maintenance.DecaySchedule)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
