package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/TrentConley/face-authentication/internal/config"
)

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered identities",
	RunE:  runGalleryList,
}

func init() {
	galleryCmd.AddCommand(galleryListCmd)
}

func runGalleryList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	store, closeStore, err := openStore(cfg, mustGetBool(cmd, "in-memory"))
	if err != nil {
		return err
	}
	defer closeStore()

	identities, err := store.Identities(context.Background())
	if err != nil {
		return fmt.Errorf("listing identities: %w", err)
	}

	if len(identities) == 0 {
		fmt.Println("No identities registered yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IDENTITY\tSAMPLES\tLAST ADDED")
	for _, id := range identities {
		fmt.Fprintf(w, "%s\t%d\t%s\n", id.Identity, id.Samples, id.LastAdded.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
