package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"eromedl/pkg/config"
	"eromedl/pkg/logger"
	"eromedl/pkg/models"
	"eromedl/pkg/queue"
	"eromedl/pkg/scraper"
	"eromedl/pkg/ui"
	"eromedl/pkg/ui/tui"
)

var (
	// Dump command flags
	outputDir       string
	queueFile       string
	maxConnections  int
	maxRetries      int
	skipVideos      bool
	skipImages      bool
	parallel        bool
	continueOnError bool
	useTUI          bool
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump [url...]",
	Short: "Download every album in the queue plus the given URLs",
	Long: `Download the albums listed in the queue file followed by any URLs given
on the command line. New URLs are appended to the queue first, so an
interrupted run resumes with the remaining albums.

When the queue is empty and no URL is given, eromedl asks for one if the
input is a terminal.`,
	Example: `  # Process url.txt
  eromedl dump

  # Add an album and process the queue
  eromedl https://www.erome.com/a/AbCdEf12

  # Images only, two connections, full screen progress
  eromedl dump --skip-videos --max-connections 2 --tui

  # Keep going past albums that fail
  eromedl dump --continue-on-error`,
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	addDumpFlags(dumpCmd)

	// A bare URL runs dump, so the root command accepts the same flags
	addDumpFlags(rootCmd)
	rootCmd.Args = cobra.ArbitraryArgs
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 && !isKnownCommand(args[0]) {
			return runDump(cmd, args)
		}
		return cmd.Help()
	}
}

func addDumpFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "base directory for albums (default ./downloads)")
	cmd.Flags().StringVar(&queueFile, "queue", "", "queue file with one album URL per line (default url.txt)")
	cmd.Flags().IntVar(&maxConnections, "max-connections", 5, "maximum concurrent file downloads")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 5, "attempts per album page before giving up")
	cmd.Flags().BoolVar(&skipVideos, "skip-videos", false, "do not download videos")
	cmd.Flags().BoolVar(&skipImages, "skip-images", false, "do not download images")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "download the files of an album concurrently")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "move on to the next album when one fails")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "use interactive terminal UI with real-time progress")
}

// dumpFlags collects the flags the user actually set
func dumpFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	f := cmd.Flags()
	if f.Changed("output") {
		flags["output"] = outputDir
	}
	if f.Changed("queue") {
		flags["queue"] = queueFile
	}
	if f.Changed("max-connections") {
		flags["max-connections"] = maxConnections
	}
	if f.Changed("max-retries") {
		flags["max-retries"] = maxRetries
	}
	if f.Changed("skip-videos") {
		flags["skip-videos"] = skipVideos
	}
	if f.Changed("skip-images") {
		flags["skip-images"] = skipImages
	}
	if f.Changed("parallel") {
		flags["parallel"] = parallel
	}
	if f.Changed("continue-on-error") {
		flags["continue-on-error"] = continueOnError
	}
	return flags
}

func runDump(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, dumpFlags(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	urls := make([]string, 0, len(args))
	for _, arg := range args {
		if u := strings.TrimSpace(arg); u != "" {
			urls = append(urls, u)
		}
	}

	if len(urls) == 0 {
		q, err := queue.Load(cfg.Output.QueueFile, logger.NewNopLogger())
		if err != nil {
			return fmt.Errorf("failed to read queue: %w", err)
		}
		if q.Len() == 0 {
			u, err := promptForURL()
			if err != nil {
				return err
			}
			if u != "" {
				urls = append(urls, u)
			}
		}
	}

	return runPipeline(cmd.Context(), cfg, func(ctx context.Context, s *scraper.Scraper) ([]*models.AlbumResult, error) {
		return s.Run(ctx, urls)
	})
}

type pipelineFunc func(ctx context.Context, s *scraper.Scraper) ([]*models.AlbumResult, error)

// runPipeline builds the scraper, attaches the requested progress output and
// runs fn until it returns or the process is interrupted
func runPipeline(parent context.Context, cfg *config.Config, fn pipelineFunc) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if useTUI {
		return runWithTUI(ctx, cfg, fn)
	}

	if err := setupLogging(cfg); err != nil {
		return err
	}

	s, err := scraper.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize downloader: %w", err)
	}
	display := ui.NewProgressDisplay(verbose || strings.EqualFold(cfg.Logging.Level, "debug"))
	s.SetReporter(display)

	ui.PrintInfo("Output", cfg.Output.BaseDirectory)
	ui.PrintInfo("Queue", cfg.Output.QueueFile)

	_, runErr := fn(ctx, s)
	summary := s.Tracker().Summary()
	s.Notifier().RunFinished(summary, runErr)

	if s.Tracker().Processed() > 0 {
		ui.PrintHighlight(summary)
	}
	if runErr != nil {
		logger.WithError(runErr).Error("Run failed")
		return runErr
	}
	if s.Tracker().Processed() > 0 {
		ui.PrintSuccess("[ALL ALBUMS PROCESSED]")
	}
	return nil
}

// runWithTUI runs the pipeline and the bubbletea program side by side.
// Quitting the program cancels the pipeline; the pipeline finishing closes
// the program.
func runWithTUI(ctx context.Context, cfg *config.Config, fn pipelineFunc) error {
	// The TUI owns the terminal, so logs go to the configured file or nowhere
	if cfg.Logging.File != "" {
		if err := setupLogging(cfg); err != nil {
			return err
		}
	} else {
		logger.SetLogger(logger.NewNopLogger())
	}

	s, err := scraper.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize downloader: %w", err)
	}

	t := tui.NewTUI(cfg.Download.MaxConnections)
	s.SetReporter(t)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var runErr error
	var g errgroup.Group
	g.Go(func() error {
		_, runErr = fn(ctx, s)
		t.Finish(s.Tracker().Summary(), runErr)
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return t.Start()
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("terminal UI failed: %w", err)
	}

	summary := s.Tracker().Summary()
	s.Notifier().RunFinished(summary, runErr)
	ui.PrintHighlight(summary)
	return runErr
}

// promptForURL asks for an album URL when stdin is a terminal
func promptForURL() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", nil
	}

	fmt.Fprint(ui.Output(), "Album URL: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read URL: %w", err)
	}
	return strings.TrimSpace(line), nil
}
