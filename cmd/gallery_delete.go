package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TrentConley/face-authentication/internal/config"
	"github.com/TrentConley/face-authentication/internal/gallery"
)

var galleryDeleteCmd = &cobra.Command{
	Use:   "delete <identity>",
	Short: "Delete all embeddings for an identity",
	Args:  cobra.ExactArgs(1),
	RunE:  runGalleryDelete,
}

func init() {
	galleryCmd.AddCommand(galleryDeleteCmd)
}

func runGalleryDelete(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	identity := gallery.NormalizeIdentity(args[0])
	if identity == "" {
		return errors.New("identity must not be empty")
	}

	store, closeStore, err := openStore(cfg, mustGetBool(cmd, "in-memory"))
	if err != nil {
		return err
	}
	defer closeStore()

	deleted, err := store.DeleteIdentity(context.Background(), identity)
	if err != nil {
		return fmt.Errorf("deleting identity: %w", err)
	}
	if deleted == 0 {
		fmt.Printf("No embeddings found for %s\n", identity)
		return nil
	}

	fmt.Printf("Deleted %d embedding(s) for %s\n", deleted, identity)
	return nil
}
