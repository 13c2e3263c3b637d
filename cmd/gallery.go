package cmd

import (
	"github.com/spf13/cobra"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Manage registered identities",
	Long:  `Commands for inspecting and editing the gallery of registered face embeddings.`,
}

func init() {
	rootCmd.AddCommand(galleryCmd)
	galleryCmd.PersistentFlags().Bool("in-memory", false, "Use the in-memory gallery instead of PostgreSQL")
}
