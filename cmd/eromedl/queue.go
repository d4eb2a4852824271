package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"eromedl/pkg/erome"
	"eromedl/pkg/logger"
	"eromedl/pkg/queue"
	"eromedl/pkg/ui"
)

// queueCmd represents the queue command
var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and edit the queue file",
	Long: `Inspect and edit the list of album URLs waiting to be downloaded.

The queue file holds one URL per line and is read by 'eromedl dump'.`,
}

var queueListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List pending album URLs",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := openQueue(cmd)
		if err != nil {
			return err
		}

		pending := q.Pending()
		if len(pending) == 0 {
			ui.PrintInfo("Queue", q.Path()+" is empty")
			return nil
		}
		ui.PrintInfo("Queue", fmt.Sprintf("%s (%d pending)", q.Path(), len(pending)))
		for i, u := range pending {
			fmt.Fprintf(cmd.OutOrStdout(), "%3d  %s\n", i+1, u)
		}
		return nil
	},
}

var queueAddCmd = &cobra.Command{
	Use:   "add <url>...",
	Short: "Append album URLs to the queue",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, queueFlags(cmd))
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		client := erome.NewClient(cfg, logger.NewNopLogger())
		for _, raw := range args {
			if _, err := client.ValidateURL(strings.TrimSpace(raw)); err != nil {
				return err
			}
		}

		q, err := queue.Load(cfg.Output.QueueFile, logger.NewNopLogger())
		if err != nil {
			return err
		}
		added, err := q.Add(args...)
		if err != nil {
			return fmt.Errorf("failed to update queue: %w", err)
		}
		ui.PrintSuccess(fmt.Sprintf("Added %d URL(s), %d pending", added, q.Len()))
		return nil
	},
}

var queueRemoveCmd = &cobra.Command{
	Use:     "remove <url>...",
	Aliases: []string{"rm"},
	Short:   "Remove album URLs from the queue",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := openQueue(cmd)
		if err != nil {
			return err
		}

		removed := 0
		for _, raw := range args {
			u := strings.TrimSpace(raw)
			if !q.Contains(u) {
				ui.PrintWarning("Not queued", u)
				continue
			}
			if err := q.MarkDone(u); err != nil {
				return fmt.Errorf("failed to update queue: %w", err)
			}
			removed++
		}
		ui.PrintSuccess(fmt.Sprintf("Removed %d URL(s), %d pending", removed, q.Len()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queueCmd)
	queueCmd.PersistentFlags().StringVar(&queueFile, "queue", "", "queue file (default url.txt)")
	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queueAddCmd)
	queueCmd.AddCommand(queueRemoveCmd)
}

func queueFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("queue") {
		flags["queue"] = queueFile
	}
	return flags
}

func openQueue(cmd *cobra.Command) (*queue.WorkQueue, error) {
	cfg, err := loadConfig(cmd, queueFlags(cmd))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return queue.Load(cfg.Output.QueueFile, logger.NewNopLogger())
}
