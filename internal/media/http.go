// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package media exposes the on-disk media indexes over HTTP.

Every route reads the published index snapshot of its kind. A bad subtree is
reported as 500 ("data is bad") and an unknown title as 404; the two are never
conflated. Batch queries answer 207 with one status per requested title.
*/
package media

import (
	"errors"
	"io/fs"
	"net/http"
	"net/url"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/mediavault/internal/index"
	"github.com/taibuivan/mediavault/internal/platform/apperr"
	"github.com/taibuivan/mediavault/internal/platform/constants"
	requestutil "github.com/taibuivan/mediavault/internal/platform/request"
	"github.com/taibuivan/mediavault/internal/platform/respond"
	"github.com/taibuivan/mediavault/internal/platform/validate"
	"github.com/taibuivan/mediavault/internal/subtitle"
	"github.com/taibuivan/mediavault/pkg/slice"
)

// maxQueryTitles bounds one batch query.
const maxQueryTitles = 100

// Catalog is the read side of one media kind's index.
type Catalog[T any] interface {
	Lookup(title string) (index.Title[T], error)
	Titles() ([]index.Summary, error)
}

// Handler serves the media index routes.
type Handler struct {
	manga     Catalog[index.Chapters]
	videos    Catalog[index.Episodes]
	subtitles Catalog[index.SubtitleTracks]

	// subtitleFiles reads subtitle files for cue parsing.
	subtitleFiles fs.FS
}

// NewHandler creates a media handler over the three indexes.
func NewHandler(manga Catalog[index.Chapters], videos Catalog[index.Episodes], subtitles Catalog[index.SubtitleTracks], subtitleFiles fs.FS) *Handler {
	return &Handler{
		manga:         manga,
		videos:        videos,
		subtitles:     subtitles,
		subtitleFiles: subtitleFiles,
	}
}

// RegisterRoutes mounts the media routes on an authenticated router.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/manga", func(r chi.Router) {
		r.Get("/", listTitles(handler.manga))
		r.Get("/query", queryTitles(handler.manga))
		r.Get("/{title}/chapters", handler.getChapters)
		r.Get("/{title}/chapters/{chapter}", handler.getPages)
	})

	router.Route("/videos", func(r chi.Router) {
		r.Get("/", listTitles(handler.videos))
		r.Get("/query", queryTitles(handler.videos))
		r.Get("/{title}/episodes", handler.getEpisodes)
	})

	router.Route("/subtitles", func(r chi.Router) {
		r.Get("/", listTitles(handler.subtitles))
		r.Get("/query", queryTitles(handler.subtitles))
		r.Get("/{title}/{episode}", handler.getTracks)
		r.Get("/{title}/{episode}/{track}/cues", handler.getCues)
	})
}

// # Shared Routes

func listTitles[T any](catalog Catalog[T]) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		titles, err := catalog.Titles()
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		respond.OK(writer, titles)
	}
}

func queryTitles[T any](catalog Catalog[T]) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		titles, err := requestutil.List(request, "titles")
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		validator := &validate.Validator{}
		if err := validator.MaxItems("titles", titles, maxQueryTitles).Err(); err != nil {
			respond.Error(writer, request, err)
			return
		}

		items := make([]respond.StatusItem, 0, len(titles))
		for _, title := range titles {
			entry, err := catalog.Lookup(title)
			items = append(items, respond.ItemFromResult(title, entry.Data, err))
		}

		respond.MultiStatus(writer, items)
	}
}

// # Manga

// Page is one readable manga page.
type Page struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (handler *Handler) getChapters(writer http.ResponseWriter, request *http.Request) {
	entry, err := lookup(request, handler.manga)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, entry.Data)
}

func (handler *Handler) getPages(writer http.ResponseWriter, request *http.Request) {
	grant, err := requestutil.RequiredGrant(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	entry, err := lookup(request, handler.manga)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	chapter, err := requestutil.Param(request, "chapter")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	names, found := entry.Data[chapter]
	if !found {
		respond.Error(writer, request, apperr.NotFound("Chapter"))
		return
	}

	respond.OK(writer, slice.Map(names, func(name string) Page {
		return Page{Name: name, URL: MediaURL(grant, constants.KindManga, entry.Dir, chapter, name)}
	}))
}

// # Video

// Episode is one playable video file.
type Episode struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (handler *Handler) getEpisodes(writer http.ResponseWriter, request *http.Request) {
	grant, err := requestutil.RequiredGrant(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	entry, err := lookup(request, handler.videos)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, slice.Map(entry.Data, func(name string) Episode {
		return Episode{Name: name, URL: MediaURL(grant, constants.KindVideo, entry.Dir, name)}
	}))
}

// # Subtitles

func (handler *Handler) getTracks(writer http.ResponseWriter, request *http.Request) {
	files, _, err := handler.episodeTracks(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, files)
}

func (handler *Handler) getCues(writer http.ResponseWriter, request *http.Request) {
	files, dir, err := handler.episodeTracks(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	track, err := requestutil.Param(request, "track")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var file *index.SubtitleFile
	for i := range files {
		if files[i].Track == track {
			file = &files[i]
			break
		}
	}
	if file == nil {
		respond.Error(writer, request, apperr.NotFound("Track"))
		return
	}
	if !subtitle.Supported(file.Encoding) {
		respond.Error(writer, request, apperr.BadRequest("Unsupported subtitle encoding: "+file.Encoding))
		return
	}

	data, err := fs.ReadFile(handler.subtitleFiles, path.Join(dir, file.File))
	if errors.Is(err, fs.ErrNotExist) {
		respond.Error(writer, request, apperr.NotFound("Track"))
		return
	}
	if err != nil {
		respond.Error(writer, request, apperr.StaleIndex("Track"))
		return
	}

	cues, err := subtitle.Parse(file.Encoding, data)
	if err != nil {
		respond.Error(writer, request, apperr.StaleIndex("Track"))
		return
	}
	respond.OK(writer, cues)
}

// episodeTracks resolves the subtitle files of the requested episode and the
// title's on-disk directory.
func (handler *Handler) episodeTracks(request *http.Request) ([]index.SubtitleFile, string, error) {
	entry, err := lookup(request, handler.subtitles)
	if err != nil {
		return nil, "", err
	}

	episode, err := requestutil.Param(request, "episode")
	if err != nil {
		return nil, "", err
	}

	files, found := entry.Data[episode]
	if !found {
		return nil, "", apperr.NotFound("Episode")
	}
	return files, entry.Dir, nil
}

// lookup resolves the {title} parameter in catalog.
func lookup[T any](request *http.Request, catalog Catalog[T]) (index.Title[T], error) {
	title, err := requestutil.Param(request, "title")
	if err != nil {
		return index.Title[T]{}, err
	}
	return catalog.Lookup(title)
}

// MediaURL builds the static path of a file inside a grant folder.
func MediaURL(grant, kind string, segments ...string) string {
	escaped := make([]string, 0, len(segments)+3)
	escaped = append(escaped, "/media", url.PathEscape(grant), kind)
	for _, segment := range segments {
		escaped = append(escaped, url.PathEscape(segment))
	}
	return path.Join(escaped...)
}
