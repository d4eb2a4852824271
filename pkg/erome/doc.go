// Package erome fetches and parses pages from the album host.
//
// A Client is bound to a single host. Every URL handed to it is checked
// against that host before any request is made, so a wrong link fails fast
// with errors.ErrInvalidHost.
//
//	client := erome.NewClient(cfg, log)
//	album, err := client.FetchAlbum(ctx, "https://www.erome.com/a/AbCd1234", erome.Options{})
//	if errors.Is(err, errs.ErrFetchExhausted) {
//	    // every attempt failed
//	}
//
// Album pages yield a title from og:title, video URLs from <source src> and
// image URLs from <img class="img-back" data-src>. Profile pages yield every
// link whose path contains the album marker ("/a/" by default).
//
// Page requests share a token bucket and are retried with a random wait
// between attempts. Only network failures, 429 and 5xx responses are
// retried; other statuses fail at once.
package erome
