package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-auth",
	Short: "A face authentication pipeline for video streams",
	Long: `Face Auth watches a stream of camera frames, recognizes registered
faces against a gallery of embeddings and reports each authentication
exactly once per appearance. Embeddings come from an InsightFace-style
HTTP extraction server; the gallery lives in PostgreSQL (pgvector) or
in memory.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
