package scraper

import (
	"context"
	"net/url"

	"eromedl/internal/downloader"
	"eromedl/pkg/erome"
	"eromedl/pkg/models"
)

// AlbumFetcher resolves album and profile pages on the source host
type AlbumFetcher interface {
	ValidateURL(raw string) (*url.URL, error)
	FetchAlbum(ctx context.Context, albumURL string, opts erome.Options) (*models.Album, error)
	FetchProfileAlbums(ctx context.Context, profileURL string) ([]string, error)
}

// AlbumDownloader downloads the media of one album into a directory
type AlbumDownloader interface {
	DownloadAlbum(ctx context.Context, albumURL string, mediaURLs []string, maxConcurrency int, destDir string) downloader.AlbumDownloadSummary
	SetProgress(p downloader.Progress)
}
