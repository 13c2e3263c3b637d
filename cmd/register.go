package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/TrentConley/face-authentication/internal/config"
	"github.com/TrentConley/face-authentication/internal/extractor"
	"github.com/TrentConley/face-authentication/internal/gallery"
)

var registerCmd = &cobra.Command{
	Use:   "register <identity> <image>...",
	Short: "Register face images for an identity",
	Long: `Register one or more face images under an identity. Each image is
downscaled, sent to the embedding server and the most confident face's
embedding is stored in the gallery. Multiple samples per identity
improve matching across poses and lighting.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().Bool("in-memory", false, "Use the in-memory gallery instead of PostgreSQL")
	registerCmd.Flags().Int("concurrency", 4, "Number of images to process in parallel")
	registerCmd.Flags().Int("max-size", 1920, "Downscale images to this size before extraction")
}

func runRegister(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	identity := gallery.NormalizeIdentity(args[0])
	if identity == "" {
		return errors.New("identity must not be empty")
	}
	images := args[1:]

	detector := extractor.NewClient(cfg.Extractor.URL, cfg.Extractor.Model, cfg.Extractor.Timeout)
	ctx := context.Background()
	if err := detector.Ping(ctx); err != nil {
		return fmt.Errorf("embedding server check failed: %w", err)
	}

	store, closeStore, err := openStore(cfg, mustGetBool(cmd, "in-memory"))
	if err != nil {
		return err
	}
	defer closeStore()

	maxSize := mustGetInt(cmd, "max-size")
	concurrency := mustGetInt(cmd, "concurrency")

	var bar *progressbar.ProgressBar
	if len(images) > 1 {
		bar = progressbar.NewOptions(len(images),
			progressbar.OptionSetDescription("Registering faces"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
		)
	}

	var successCount, errorCount int
	var mu sync.Mutex
	var errorLines []string

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, path := range images {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			err := registerImage(ctx, detector, store, cfg, identity, path, maxSize)

			mu.Lock()
			if err != nil {
				errorCount++
				errorLines = append(errorLines, fmt.Sprintf("  %s: %v", filepath.Base(path), err))
			} else {
				successCount++
			}
			mu.Unlock()
			if bar != nil {
				_ = bar.Add(1)
			}
		}(path)
	}
	wg.Wait()

	if bar != nil {
		fmt.Println()
	}
	fmt.Printf("Registered %d embedding(s) for %s", successCount, identity)
	if errorCount > 0 {
		fmt.Printf(" (%d failed)\n%s\n", errorCount, strings.Join(errorLines, "\n"))
	} else {
		fmt.Println()
	}

	if successCount == 0 {
		return errors.New("no embeddings were registered")
	}
	return nil
}

// registerImage runs one image through resize, extraction and insert.
func registerImage(ctx context.Context, detector *extractor.Client, store gallery.Store, cfg *config.Config, identity, path string, maxSize int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	resized, err := extractor.ResizeImage(data, maxSize)
	if err != nil {
		return fmt.Errorf("resizing: %w", err)
	}

	faces, err := detector.Detect(ctx, resized)
	if err != nil {
		return fmt.Errorf("extracting: %w", err)
	}
	face, ok := extractor.BestFace(faces)
	if !ok {
		return errors.New("no face found")
	}
	if cfg.Extractor.Dim > 0 && face.Dim != cfg.Extractor.Dim {
		return fmt.Errorf("embedding dimension %d does not match configured %d", face.Dim, cfg.Extractor.Dim)
	}

	return store.Insert(ctx, gallery.Entry{
		Identity:  identity,
		Embedding: face.Embedding,
		Model:     cfg.Extractor.Model,
		Dim:       face.Dim,
	})
}
