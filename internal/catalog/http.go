// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/mediavault/internal/platform/constants"
	requestutil "github.com/taibuivan/mediavault/internal/platform/request"
	"github.com/taibuivan/mediavault/internal/platform/respond"
	"github.com/taibuivan/mediavault/internal/platform/validate"
	"github.com/taibuivan/mediavault/pkg/pagination"
)

// maxQueryLength bounds the search string.
const maxQueryLength = 200

// Handler implements the HTTP layer for catalog browsing.
type Handler struct {
	store Store
}

// NewHandler constructs a new catalog [Handler].
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Routes returns a [chi.Router] configured with the catalog endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/{kind}", handler.search)
	router.Get("/{kind}/{title}", handler.getEntry)

	return router
}

/*
GET /api/v1/catalog/{kind}.

Description: Retrieves a paginated list of metadata entries, newest first.

Request:
  - q: string (case-insensitive title match)
  - tag: string
  - limit: int
  - page: int

Response:
  - 200: []Entry: Paginated list of entries
*/
func (handler *Handler) search(writer http.ResponseWriter, request *http.Request) {
	kind, err := requestutil.Param(request, "kind")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter := Filter{
		Query: strings.TrimSpace(request.URL.Query().Get("q")),
		Tag:   strings.TrimSpace(request.URL.Query().Get("tag")),
	}

	validator := &validate.Validator{}
	validator.
		OneOf("kind", kind, constants.KindManga, constants.KindVideo).
		MaxLen("q", filter.Query, maxQueryLength)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	paginationParams := pagination.FromRequest(request)
	entries, total, err := handler.store.Search(request.Context(), kind, filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, entries, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

/*
GET /api/v1/catalog/{kind}/{title}.

Response:
  - 200: Entry
  - 404: Unknown title
*/
func (handler *Handler) getEntry(writer http.ResponseWriter, request *http.Request) {
	kind, err := requestutil.Param(request, "kind")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if err := validator.OneOf("kind", kind, constants.KindManga, constants.KindVideo).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	title, err := requestutil.Param(request, "title")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	entry, err := handler.store.Get(request.Context(), kind, title)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, entry)
}
