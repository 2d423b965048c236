// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media_test

import (
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/mediavault/internal/index"
	"github.com/taibuivan/mediavault/internal/media"
	"github.com/taibuivan/mediavault/internal/platform/ctxutil"
)

// brokenDirFS fails reads of one directory.
type brokenDirFS struct {
	fstest.MapFS
	broken string
}

func (fsys brokenDirFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if name == fsys.broken {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrPermission}
	}
	return fsys.MapFS.ReadDir(name)
}

const srt = "1\n00:00:01,000 --> 00:00:02,000\nHi\n"

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	mangaFS := brokenDirFS{
		MapFS: fstest.MapFS{
			"Berserk/Chapter 1/01.png": {},
			"Berserk/Chapter 1/02.png": {},
			"Monster/Chapter 1/01.png": {},
			"Monster/Chapter 2/01.png": {},
			"Re:Zero/Ch 1/01.png":      {},
		},
		broken: "Monster/Chapter 2",
	}
	videoFS := fstest.MapFS{
		"Frieren/Ep 01.mkv": {},
	}
	subtitleFS := fstest.MapFS{
		"Frieren/Ep 01.Eng.srt": {Data: []byte(srt)},
		"Frieren/Ep 01.Jpn.sub": {Data: []byte("x")},
	}

	manga := index.New("manga", mangaFS, index.ScanChapters, 2, logger)
	videos := index.New("video", videoFS, index.ScanEpisodes, 2, logger)
	subtitles := index.New("subtitles", subtitleFS, index.ScanSubtitles, 2, logger)
	require.NoError(t, manga.Build(ctx))
	require.NoError(t, videos.Build(ctx))
	require.NoError(t, subtitles.Build(ctx))

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(ctxutil.WithGrant(r.Context(), "grant1234")))
		})
	})
	media.NewHandler(manga, videos, subtitles, subtitleFS).RegisterRoutes(router)
	return router
}

func get(t *testing.T, router http.Handler, target string) (int, map[string]any) {
	t.Helper()
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return recorder.Code, body
}

/*
TestQuery_MultiStatus returns one status per title: good, bad and unknown.
*/
func TestQuery_MultiStatus(t *testing.T) {
	router := newRouter(t)

	code, body := get(t, router, "/manga/query?titles=Berserk,Monster,Vagabond")
	require.Equal(t, http.StatusMultiStatus, code)

	items := body["data"].([]any)
	require.Len(t, items, 3)

	statuses := map[string]float64{}
	for _, raw := range items {
		item := raw.(map[string]any)
		statuses[item["title"].(string)] = item["status"].(float64)
	}
	assert.Equal(t, float64(http.StatusOK), statuses["Berserk"])
	assert.Equal(t, float64(http.StatusInternalServerError), statuses["Monster"])
	assert.Equal(t, float64(http.StatusNotFound), statuses["Vagabond"])
}

/*
TestQuery_RequiresTitles rejects an empty title list.
*/
func TestQuery_RequiresTitles(t *testing.T) {
	code, _ := get(t, newRouter(t), "/videos/query?titles=,%20")
	assert.Equal(t, http.StatusBadRequest, code)
}

/*
TestChapters distinguishes good, bad and unknown titles.
*/
func TestChapters(t *testing.T) {
	router := newRouter(t)

	code, body := get(t, router, "/manga/Berserk/chapters")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body["data"], "Chapter 1")

	code, body = get(t, router, "/manga/Monster/chapters")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Title data is bad", body["error"])

	code, _ = get(t, router, "/manga/Vagabond/chapters")
	assert.Equal(t, http.StatusNotFound, code)
}

/*
TestChapters_EscapedTitle resolves titles the client percent-encoded beyond
what Go would escape.
*/
func TestChapters_EscapedTitle(t *testing.T) {
	router := newRouter(t)

	for _, target := range []string{
		"/manga/Re:Zero/chapters",
		"/manga/Re%3AZero/chapters",
		"/manga/Re%3AZero/chapters/Ch%201",
	} {
		code, _ := get(t, router, target)
		assert.Equal(t, http.StatusOK, code, target)
	}
}

/*
TestPages links every page through the client's grant.
*/
func TestPages(t *testing.T) {
	code, body := get(t, newRouter(t), "/manga/Berserk/chapters/Chapter%201")
	require.Equal(t, http.StatusOK, code)

	pages := body["data"].([]any)
	require.Len(t, pages, 2)
	assert.Equal(t, "/media/grant1234/manga/Berserk/Chapter%201/01.png", pages[0].(map[string]any)["url"])
}

/*
TestEpisodes lists episodes with their static URLs.
*/
func TestEpisodes(t *testing.T) {
	code, body := get(t, newRouter(t), "/videos/Frieren/episodes")
	require.Equal(t, http.StatusOK, code)

	episodes := body["data"].([]any)
	require.Len(t, episodes, 1)
	assert.Equal(t, "Ep 01.mkv", episodes[0].(map[string]any)["name"])
}

/*
TestCues parses a supported track and rejects an unsupported one.
*/
func TestCues(t *testing.T) {
	router := newRouter(t)

	code, body := get(t, router, "/subtitles/Frieren/Ep%2001/Eng/cues")
	require.Equal(t, http.StatusOK, code)
	cues := body["data"].([]any)
	require.Len(t, cues, 1)
	assert.Equal(t, "Hi", cues[0].(map[string]any)["text"])

	code, _ = get(t, router, "/subtitles/Frieren/Ep%2001/Jpn/cues")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = get(t, router, "/subtitles/Frieren/Ep%2001/Fra/cues")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = get(t, router, "/subtitles/Frieren/Ep%2099")
	assert.Equal(t, http.StatusNotFound, code)
}
