package erome

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"eromedl/pkg/config"
	errs "eromedl/pkg/errors"
	"eromedl/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig points the client at an httptest origin with millisecond waits
func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Site.Host = "127.0.0.1"
	cfg.Site.RequestTimeout = 5 * time.Second
	cfg.Retry.MinDelay = time.Millisecond
	cfg.Retry.MaxDelay = 2 * time.Millisecond
	cfg.Pacing.PageRequestsPerMinute = 0
	return cfg
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(testConfig(), logger.NewNopLogger())
	return c, srv, &hits
}

func serveAlbum(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, albumHTML)
}

func TestValidateURLRejectsForeignHost(t *testing.T) {
	c, _, hits := newTestClient(t, serveAlbum)

	_, err := c.FetchAlbum(context.Background(), "https://example.com/a/AbCd1234", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInvalidHost)
	assert.Equal(t, errs.ErrorTypeValidation, errs.TypeOf(err))

	_, err = c.FetchProfileAlbums(context.Background(), "https://www.erome.com.evil.test/someone")
	assert.ErrorIs(t, err, errs.ErrInvalidHost)

	assert.Zero(t, atomic.LoadInt32(hits), "no request may reach the origin")
}

func TestValidateURLIgnoresPort(t *testing.T) {
	c := NewClient(testConfig(), logger.NewNopLogger())

	u, err := c.ValidateURL("http://127.0.0.1:8080/a/x")
	require.NoError(t, err)
	assert.Equal(t, "8080", u.Port())
}

func TestFetchAlbum(t *testing.T) {
	var gotUA string
	c, srv, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		serveAlbum(w, r)
	})

	album, err := c.FetchAlbum(context.Background(), srv.URL+"/a/AbCd1234", Options{})
	require.NoError(t, err)

	assert.Equal(t, "Beach Day", album.Title)
	assert.Len(t, album.MediaURLs, 4, "videos and images are deduplicated")
	assert.Equal(t, 3, album.Videos)
	assert.Equal(t, "Mozilla/5.0", gotUA)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestFetchAlbumDefaultTitle(t *testing.T) {
	c, srv, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><meta property="og:title" content=" ./ "></head></html>`)
	})

	album, err := c.FetchAlbum(context.Background(), srv.URL+"/a/x", Options{})
	require.NoError(t, err)
	assert.Equal(t, "_", album.Title)

	c2, srv2, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html></html>`)
	})
	album, err = c2.FetchAlbum(context.Background(), srv2.URL+"/a/y", Options{})
	require.NoError(t, err)
	assert.Equal(t, "temp", album.Title)
}

func TestFetchAlbumSucceedsOnFifthAttempt(t *testing.T) {
	var calls int32
	c, srv, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 5 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		serveAlbum(w, r)
	})

	var retries []int
	c.OnRetry = func(_ string, attempt int, _ error, wait time.Duration) {
		retries = append(retries, attempt)
		assert.LessOrEqual(t, wait, 2*time.Millisecond)
	}

	album, err := c.FetchAlbum(context.Background(), srv.URL+"/a/AbCd1234", Options{})
	require.NoError(t, err)
	assert.Equal(t, "Beach Day", album.Title)
	assert.Equal(t, int32(5), atomic.LoadInt32(hits))
	assert.Equal(t, []int{1, 2, 3, 4}, retries)
}

func TestFetchAlbumExhausted(t *testing.T) {
	c, srv, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.FetchAlbum(context.Background(), srv.URL+"/a/AbCd1234", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrFetchExhausted)
	assert.Contains(t, err.Error(), "failed to fetch album data after 5 attempts")
	assert.Equal(t, int32(5), atomic.LoadInt32(hits))
}

func TestFetchAlbumNetworkFailureExhausts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(serveAlbum))
	addr := srv.URL
	srv.Close()

	c := NewClient(testConfig(), logger.NewNopLogger())
	_, err := c.FetchAlbum(context.Background(), addr+"/a/AbCd1234", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrFetchExhausted)

	var typed *errs.Error
	assert.True(t, errors.As(err, &typed))
	assert.Equal(t, errs.ErrorTypeNetwork, typed.Type)
}

func TestFetchAlbumRetriesStalledPages(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 2 {
			select {
			case <-time.After(400 * time.Millisecond):
			case <-r.Context().Done():
			}
			return
		}
		serveAlbum(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig()
	cfg.Site.RequestTimeout = 100 * time.Millisecond
	c := NewClient(cfg, logger.NewNopLogger())

	var retried []error
	c.OnRetry = func(_ string, _ int, err error, _ time.Duration) {
		retried = append(retried, err)
	}

	album, err := c.FetchAlbum(context.Background(), srv.URL+"/a/AbCd1234", Options{})
	require.NoError(t, err)
	assert.Equal(t, "Beach Day", album.Title)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	require.Len(t, retried, 2)
	assert.Equal(t, errs.ErrorTypeNetwork, errs.TypeOf(retried[0]))
	assert.ErrorIs(t, retried[0], context.DeadlineExceeded)
}

func TestFetchAlbumStalledPagesExhaust(t *testing.T) {
	c, srv, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	c.requestTimeout = 20 * time.Millisecond

	_, err := c.FetchAlbum(context.Background(), srv.URL+"/a/AbCd1234", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrFetchExhausted)
	assert.Equal(t, int32(5), atomic.LoadInt32(hits))
}

func TestFetchAlbumNotFoundIsImmediate(t *testing.T) {
	c, srv, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := c.FetchAlbum(context.Background(), srv.URL+"/a/gone", Options{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, errs.ErrFetchExhausted)
	assert.Equal(t, errs.ErrorTypeNotFound, errs.TypeOf(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestFetchAlbumCancelled(t *testing.T) {
	c, srv, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c.SetBackoff(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchAlbum(ctx, srv.URL+"/a/x", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchProfileAlbumsFollowsPagination(t *testing.T) {
	c, srv, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "":
			fmt.Fprint(w, `<a href="/a/one">1</a><a href="/a/two">2</a><a rel="next" href="/someone?page=2">next</a>`)
		case "2":
			fmt.Fprint(w, `<a href="/a/two">2</a><a href="/a/three">3</a><a rel="next" href="/someone?page=2">loop</a>`)
		default:
			t.Errorf("unexpected page %q", r.URL.RawQuery)
		}
	})

	albums, err := c.FetchProfileAlbums(context.Background(), srv.URL+"/someone")
	require.NoError(t, err)
	assert.Equal(t, []string{
		srv.URL + "/a/one",
		srv.URL + "/a/two",
		srv.URL + "/a/three",
	}, albums)
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
}

func TestFetchProfileAlbumsPageLimit(t *testing.T) {
	c, srv, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := len(r.URL.Query().Get("p"))
		fmt.Fprintf(w, `<a href="/a/%d">a</a><a rel="next" href="/someone?p=%sx">next</a>`, n, r.URL.Query().Get("p"))
	})
	c.maxProfilePages = 3

	albums, err := c.FetchProfileAlbums(context.Background(), srv.URL+"/someone")
	require.NoError(t, err)
	assert.Len(t, albums, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(hits))
}
