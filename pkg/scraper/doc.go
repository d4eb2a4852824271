// Package scraper drives albums through the download pipeline.
//
// Each album moves through a fixed sequence of stages:
//
//	Pending → Fetching → Downloading → Archiving → QueueUpdate → Cooldown → Done
//
// Any stage may end in Failed. Only a rejected host, an exhausted page fetch,
// an unusable album directory or cancellation fail an album; a file that
// cannot be downloaded, a zip that cannot be written or a queue that cannot
// be saved are logged and the album still completes.
//
// Usage:
//
//	s, err := scraper.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	s.SetReporter(ui.NewProgressDisplay(false))
//
//	results, err := s.Run(ctx, []string{"https://www.erome.com/a/AbCd1234"})
//
// Run processes the work queue in order and stops at the first failed album
// unless download.continue_on_error is set. DumpProfile collects every album
// linked from a profile page, rewrites the queue with them and stores the
// archives under a directory named after the profile.
package scraper
