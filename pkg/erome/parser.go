package erome

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	errs "eromedl/pkg/errors"
)

// Options toggles which media kinds are extracted from an album page
type Options struct {
	SkipVideos bool
	SkipImages bool
}

// AlbumPage is the parsed content of an album page
type AlbumPage struct {
	// Title is the raw og:title value, empty when the page has none
	Title  string
	Videos []string
	Images []string
}

// MediaURLs returns the set union of videos and images, videos first, in
// the order they appear on the page
func (p *AlbumPage) MediaURLs() []string {
	seen := make(map[string]bool, len(p.Videos)+len(p.Images))
	out := make([]string, 0, len(p.Videos)+len(p.Images))
	for _, list := range [][]string{p.Videos, p.Images} {
		for _, u := range list {
			if seen[u] {
				continue
			}
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

// ParseAlbum extracts the title and media URLs from an album page. Relative
// media URLs are resolved against base.
func ParseAlbum(r io.Reader, base *url.URL, opts Options) (*AlbumPage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, "failed to parse album page", err)
	}

	page := &AlbumPage{}
	if content, ok := doc.Find("meta[property='og:title']").First().Attr("content"); ok {
		page.Title = strings.TrimSpace(content)
	}

	if !opts.SkipVideos {
		doc.Find("source[src]").Each(func(_ int, s *goquery.Selection) {
			if abs := resolve(base, s.AttrOr("src", "")); abs != "" {
				page.Videos = append(page.Videos, abs)
			}
		})
	}

	if !opts.SkipImages {
		doc.Find("img.img-back[data-src]").Each(func(_ int, s *goquery.Selection) {
			if abs := resolve(base, s.AttrOr("data-src", "")); abs != "" {
				page.Images = append(page.Images, abs)
			}
		})
	}

	return page, nil
}

// ProfilePage is the parsed content of one profile listing page
type ProfilePage struct {
	Albums []string
	Next   string
}

// ParseProfile collects links whose path contains marker, resolved and
// deduplicated in page order, plus the rel="next" pagination link if any.
func ParseProfile(r io.Reader, base *url.URL, marker string) (*ProfilePage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, "failed to parse profile page", err)
	}

	page := &ProfilePage{}
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		abs := resolve(base, s.AttrOr("href", ""))
		if abs == "" || seen[abs] {
			return
		}
		u, err := url.Parse(abs)
		if err != nil || !strings.Contains(u.Path, marker) {
			return
		}
		seen[abs] = true
		page.Albums = append(page.Albums, abs)
	})

	if href, ok := doc.Find("a[rel='next'], link[rel='next']").First().Attr("href"); ok {
		page.Next = resolve(base, href)
	}

	return page, nil
}

// resolve turns ref into an absolute URL against base. Fragments are
// dropped; unparseable or empty refs yield "".
func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "javascript:") {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	u.Fragment = ""
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

// describe is used in log fields
func (p *AlbumPage) describe() string {
	return fmt.Sprintf("%d videos, %d images", len(p.Videos), len(p.Images))
}
