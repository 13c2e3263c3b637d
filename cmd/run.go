package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/TrentConley/face-authentication/internal/config"
	"github.com/TrentConley/face-authentication/internal/extractor"
	"github.com/TrentConley/face-authentication/internal/pipeline"
	"github.com/TrentConley/face-authentication/internal/publisher"
	"github.com/TrentConley/face-authentication/internal/web"
	"github.com/TrentConley/face-authentication/internal/web/handlers"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the authentication pipeline over a frame stream",
	Long: `Run the face authentication pipeline. Frames are read from a directory
(--frames-dir) at the configured rate, faces are extracted and matched
against the gallery, and each successful authentication is reported
exactly once per appearance.

With --port the HTTP API (status, gallery management, SSE event stream)
is served alongside the pipeline. With MQTT_BROKER set, events are also
published to the configured topic.`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("frames-dir", "", "Directory of frames to replay (required)")
	runCmd.Flags().Float64("fps", 10, "Frame replay rate; 0 means as fast as possible")
	runCmd.Flags().Bool("in-memory", false, "Use the in-memory gallery instead of PostgreSQL")
	runCmd.Flags().Int("port", 0, "Serve the HTTP API on this port; 0 disables it")
	runCmd.Flags().String("host", "0.0.0.0", "Host to bind the HTTP API to")
	_ = runCmd.MarkFlagRequired("frames-dir")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	detector := extractor.NewClient(cfg.Extractor.URL, cfg.Extractor.Model, cfg.Extractor.Timeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fmt.Printf("Checking embedding server at %s...\n", cfg.Extractor.URL)
	if err := detector.Ping(ctx); err != nil {
		if errors.Is(err, extractor.ErrModelUnavailable) {
			return fmt.Errorf("embedding server is not usable: %w", err)
		}
		return fmt.Errorf("embedding server check failed: %w", err)
	}

	store, closeStore, err := openStore(cfg, mustGetBool(cmd, "in-memory"))
	if err != nil {
		return err
	}
	defer closeStore()

	source, err := pipeline.NewDirSource(mustGetString(cmd, "frames-dir"), mustGetFloat64(cmd, "fps"))
	if err != nil {
		return err
	}

	p := pipeline.New(pipeline.Config{
		Detector:            detector,
		Store:               store,
		Threshold:           cfg.Matching.Threshold,
		RecognitionInterval: cfg.Matching.RecognitionInterval,
		TrackGracePeriod:    cfg.Matching.TrackGracePeriod,
		CandidateK:          cfg.Matching.CandidateK,
		DetectTimeout:       cfg.Extractor.Timeout,
	})

	if cfg.MQTT.Broker != "" {
		pub, err := publisher.NewMQTT(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT broker: %w", err)
		}
		defer pub.Close()
		fmt.Printf("Publishing events to MQTT topic %s/+\n", cfg.MQTT.Topic)
		go pub.Run(p.Events().AddListener())
	}

	var server *web.Server
	if port := mustGetInt(cmd, "port"); port > 0 {
		server = web.NewServer(handlers.Deps{
			Pipeline: p,
			Store:    store,
			Detector: detector,
			Model:    cfg.Extractor.Model,
			Dim:      cfg.Extractor.Dim,
		}, mustGetString(cmd, "host"), port)
		go func() {
			if err := server.Start(); err != nil {
				fmt.Printf("Web server error: %v\n", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
	}()

	fmt.Printf("Pipeline running (threshold %.2f, recognition every %s)\n",
		cfg.Matching.Threshold, cfg.Matching.RecognitionInterval)

	for result := range p.Run(ctx, source) {
		for _, event := range result.Events {
			fmt.Printf("AUTHENTICATED: %s (distance %.3f, track %s)\n",
				event.Identity, event.Distance, event.TrackKey)
		}
	}

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}

	stats := p.Stats()
	fmt.Printf("Done: %d frames seen, %d processed, %d dropped, %d events\n",
		stats.FramesSeen, stats.FramesProcessed, stats.FramesDropped, stats.EventsEmitted)
	return nil
}
