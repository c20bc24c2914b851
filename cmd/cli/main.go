package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var outDir string

var rootCmd = &cobra.Command{
	Use:   "postlens",
	Short: "Fetch and score public Instagram posts",
	Long: `postlens fetches a public Instagram post, normalizes it and asks a language
model to score it for engagement, quality, relevance and audience behavior.
Results are written under <out>/<shortcode>/.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outDir, "out", "o", "scrapers", "directory that receives <shortcode>/data.json and analysis.json")
	rootCmd.AddCommand(fetchCmd, analyzeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
