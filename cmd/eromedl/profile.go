package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"eromedl/pkg/models"
	"eromedl/pkg/scraper"
)

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile <url>",
	Short: "Download every album of a profile",
	Long: `Collect the album links of a profile page, write them to the queue file
and download each album into a folder named after the profile.

The queue is replaced with the profile's albums, so an interrupted profile
download continues with 'eromedl dump'.`,
	Example: `  eromedl profile https://www.erome.com/someone
  eromedl profile https://www.erome.com/someone --skip-videos --output ./archive`,
	Args: cobra.ExactArgs(1),
	RunE: runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	addDumpFlags(profileCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	profileURL := strings.TrimSpace(args[0])

	cfg, err := loadConfig(cmd, dumpFlags(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	return runPipeline(cmd.Context(), cfg, func(ctx context.Context, s *scraper.Scraper) ([]*models.AlbumResult, error) {
		return s.DumpProfile(ctx, profileURL)
	})
}
