package erome

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const albumHTML = `<!DOCTYPE html>
<html><head>
<meta property="og:title" content="  Beach Day  ">
</head><body>
<div class="media-group">
  <video><source src="https://v1.cdn.test/clips/one.mp4" type="video/mp4"></video>
  <video><source src="/clips/two.mp4" type="video/mp4"></video>
  <video><source src="https://v1.cdn.test/clips/one.mp4" type="video/mp4"></video>
</div>
<div class="media-group">
  <img class="img-front" src="https://s1.cdn.test/thumb.jpg">
  <img class="img-back" data-src="https://s1.cdn.test/a.jpg">
  <img class="img-back" data-src="https://s1.cdn.test/b.jpg">
  <img class="img-back" data-src="https://s1.cdn.test/a.jpg">
  <img class="img-back" src="https://s1.cdn.test/no-data-src.jpg">
</div>
</body></html>`

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestParseAlbum(t *testing.T) {
	base := mustURL(t, "https://www.erome.com/a/AbCd1234")

	page, err := ParseAlbum(strings.NewReader(albumHTML), base, Options{})
	require.NoError(t, err)

	assert.Equal(t, "Beach Day", page.Title)
	assert.Equal(t, []string{
		"https://v1.cdn.test/clips/one.mp4",
		"https://www.erome.com/clips/two.mp4",
		"https://v1.cdn.test/clips/one.mp4",
	}, page.Videos)
	assert.Len(t, page.Images, 3)

	assert.Equal(t, []string{
		"https://v1.cdn.test/clips/one.mp4",
		"https://www.erome.com/clips/two.mp4",
		"https://s1.cdn.test/a.jpg",
		"https://s1.cdn.test/b.jpg",
	}, page.MediaURLs())
}

func TestParseAlbumToggles(t *testing.T) {
	base := mustURL(t, "https://www.erome.com/a/AbCd1234")

	noVideos, err := ParseAlbum(strings.NewReader(albumHTML), base, Options{SkipVideos: true})
	require.NoError(t, err)
	assert.Empty(t, noVideos.Videos)
	assert.Len(t, noVideos.MediaURLs(), 2)

	noImages, err := ParseAlbum(strings.NewReader(albumHTML), base, Options{SkipImages: true})
	require.NoError(t, err)
	assert.Empty(t, noImages.Images)
	assert.Len(t, noImages.MediaURLs(), 2)
}

func TestParseAlbumMissingTitle(t *testing.T) {
	page, err := ParseAlbum(strings.NewReader("<html><body></body></html>"), nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, page.Title)
	assert.Empty(t, page.MediaURLs())
}

func TestMediaURLsUnionCount(t *testing.T) {
	page := &AlbumPage{
		Videos: []string{"v1", "v2", "shared"},
		Images: []string{"i1", "shared", "i1"},
	}
	// |{v1, v2, shared} ∪ {i1, shared}| = 4
	assert.Len(t, page.MediaURLs(), 4)
}

const profileHTML = `<html><body>
<a href="/a/first">First</a>
<a href="https://www.erome.com/a/second#comments">Second</a>
<a href="/a/first">First again</a>
<a href="/user/settings">Settings</a>
<a href="#top">Top</a>
<a href="javascript:void(0)">JS</a>
<a rel="next" href="/someone?page=2">Next</a>
</body></html>`

func TestParseProfile(t *testing.T) {
	base := mustURL(t, "https://www.erome.com/someone")

	page, err := ParseProfile(strings.NewReader(profileHTML), base, "/a/")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://www.erome.com/a/first",
		"https://www.erome.com/a/second",
	}, page.Albums)
	assert.Equal(t, "https://www.erome.com/someone?page=2", page.Next)
}

func TestResolve(t *testing.T) {
	base := mustURL(t, "https://www.erome.com/a/x")

	assert.Equal(t, "https://cdn.test/f.mp4", resolve(base, "https://cdn.test/f.mp4"))
	assert.Equal(t, "https://cdn.test/f.mp4", resolve(base, "//cdn.test/f.mp4"))
	assert.Equal(t, "https://www.erome.com/a/y", resolve(base, "y"))
	assert.Equal(t, "", resolve(base, ""))
	assert.Equal(t, "", resolve(base, "mailto:someone@example.com"))
}
