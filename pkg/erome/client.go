package erome

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"eromedl/pkg/config"
	errs "eromedl/pkg/errors"
	"eromedl/pkg/logger"
	"eromedl/pkg/models"
	"eromedl/pkg/ratelimit"
	"eromedl/pkg/retry"
	"eromedl/pkg/storage"
)

// Client fetches album and profile pages from the configured host
type Client struct {
	httpClient *http.Client
	headers    map[string]string

	// requestTimeout bounds one page request, body included. Media requests
	// are bounded only by the caller's context.
	requestTimeout time.Duration

	host            string
	marker          string
	maxProfilePages int

	maxAttempts int
	backoff     retry.BackoffStrategy
	pages       ratelimit.Limiter

	// OnRetry, when set, is told about every failed attempt that will be retried
	OnRetry func(pageURL string, attempt int, err error, wait time.Duration)

	logger logger.Logger
}

// NewClient creates a client from the site, retry and pacing settings
func NewClient(cfg *config.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	c := &Client{
		httpClient:     &http.Client{},
		requestTimeout: cfg.Site.RequestTimeout,
		headers: map[string]string{
			"User-Agent": cfg.Site.UserAgent,
			"Accept":     "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		},
		host:            cfg.Site.Host,
		marker:          cfg.Site.AlbumMarker,
		maxProfilePages: cfg.Site.MaxProfilePages,
		maxAttempts:     cfg.Retry.MaxAttempts,
		backoff:         &retry.RandomBackoff{Min: cfg.Retry.MinDelay, Max: cfg.Retry.MaxDelay},
		logger:          log.WithField("component", "fetcher"),
	}
	if tb := ratelimit.PerMinute(cfg.Pacing.PageRequestsPerMinute); tb != nil {
		c.pages = tb
	}
	return c
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// SetPageLimiter replaces the limiter applied to page requests; nil disables it
func (c *Client) SetPageLimiter(l ratelimit.Limiter) {
	c.pages = l
}

// SetBackoff replaces the wait strategy between fetch attempts
func (c *Client) SetBackoff(b retry.BackoffStrategy) {
	c.backoff = b
}

// SetHeader sets a header sent with every request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// ValidateURL parses raw and checks that its host is the configured one.
// The port is ignored.
func (c *Client) ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeValidation, fmt.Sprintf("invalid URL %q", raw), err)
	}
	if u.Hostname() != c.host {
		return nil, errs.InvalidHost(u.Hostname(), c.host)
	}
	return u, nil
}

// FetchAlbum downloads and parses an album page, retrying transient
// failures. The returned album has a sanitized title and deduplicated media.
func (c *Client) FetchAlbum(ctx context.Context, albumURL string, opts Options) (*models.Album, error) {
	base, err := c.ValidateURL(albumURL)
	if err != nil {
		return nil, err
	}

	log := c.logger.WithField("album", albumURL)
	log.Debug("Fetching album page")

	page, err := fetchWithRetry(ctx, c, base, func(body []byte) (*AlbumPage, error) {
		return ParseAlbum(bytes.NewReader(body), base, opts)
	})
	if err != nil {
		return nil, err
	}

	if page.Title == "" {
		log.Warn("Album page has no og:title, using default title")
	}

	album := &models.Album{
		URL:       albumURL,
		Title:     storage.SanitizeTitle(page.Title),
		MediaURLs: page.MediaURLs(),
		Videos:    len(page.Videos),
		Images:    len(page.Images),
	}

	log.InfoWithFields("Album fetched", map[string]interface{}{
		"title": album.Title,
		"media": len(album.MediaURLs),
		"found": page.describe(),
	})
	return album, nil
}

// FetchProfileAlbums collects album links from a profile page, following
// rel="next" pagination on the same host up to the configured page limit.
func (c *Client) FetchProfileAlbums(ctx context.Context, profileURL string) ([]string, error) {
	next, err := c.ValidateURL(profileURL)
	if err != nil {
		return nil, err
	}

	log := c.logger.WithField("profile", profileURL)

	seen := make(map[string]bool)
	visited := make(map[string]bool)
	var albums []string

	for pageNum := 1; next != nil && pageNum <= c.maxProfilePages; pageNum++ {
		current := next
		next = nil
		visited[current.String()] = true

		page, err := fetchWithRetry(ctx, c, current, func(body []byte) (*ProfilePage, error) {
			return ParseProfile(bytes.NewReader(body), current, c.marker)
		})
		if err != nil {
			return nil, err
		}

		for _, a := range page.Albums {
			if !seen[a] {
				seen[a] = true
				albums = append(albums, a)
			}
		}

		log.DebugWithFields("Profile page parsed", map[string]interface{}{
			"page":   pageNum,
			"albums": len(page.Albums),
		})

		if page.Next == "" {
			break
		}
		u, err := url.Parse(page.Next)
		if err != nil || u.Hostname() != c.host || visited[u.String()] {
			break
		}
		next = u
	}

	log.WithField("albums", len(albums)).Info("Profile albums discovered")
	return albums, nil
}

// fetchWithRetry GETs pageURL and parses the body, retrying with a random
// backoff. Exhausting the attempts yields the terminal fetch error.
func fetchWithRetry[T any](ctx context.Context, c *Client, pageURL *url.URL, parse func([]byte) (T, error)) (T, error) {
	result, err := retry.DoWithResult(func() (T, error) {
		var zero T
		body, err := c.getPage(ctx, pageURL.String())
		if err != nil {
			return zero, err
		}
		return parse(body)
	}, &retry.Config{
		MaxAttempts: c.maxAttempts,
		Backoff:     c.backoff,
		Context:     ctx,
		Logger:      c.logger.WithField("url", pageURL.String()),
		OnRetry: func(attempt int, err error, delay time.Duration) {
			if c.OnRetry != nil {
				c.OnRetry(pageURL.String(), attempt, err, delay)
			}
		},
	})

	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		return result, errs.FetchExhausted(exhausted.Attempts, exhausted.Last)
	}
	return result, err
}

// getPage performs one rate-limited GET and returns the body of a 2xx
// response. The request timeout covers only this attempt.
func (c *Client) getPage(ctx context.Context, pageURL string) ([]byte, error) {
	if c.pages != nil {
		if err := c.pages.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	resp, err := c.Do(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, "failed to read response body", err)
	}
	return body, nil
}

// Do sends a request with the client headers plus extra. Transport
// failures come back as network errors; the caller owns the response body.
func (c *Client) Do(ctx context.Context, method, rawURL string, extra map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeValidation, "failed to create request", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	for key, value := range extra {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).DebugWithFields("HTTP request failed", map[string]interface{}{
			"method":   method,
			"url":      rawURL,
			"duration": time.Since(start),
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, fmt.Sprintf("%s %s", method, rawURL), err)
	}

	logger.LogRequest(c.logger, method, rawURL, resp.StatusCode, time.Since(start))
	return resp, nil
}

// checkResponseStatus maps non-2xx responses to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	err := errs.FromStatus(resp.StatusCode, resp.Request.URL.String())
	if err == nil {
		return nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		c.logger.WithField("url", resp.Request.URL.String()).Warn("Rate limited by host")
	}
	return err
}
