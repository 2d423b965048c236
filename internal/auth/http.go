// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/mediavault/internal/platform/request"
	"github.com/taibuivan/mediavault/internal/platform/respond"
	"github.com/taibuivan/mediavault/internal/platform/validate"
)

// Handler implements the login endpoint.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST /login : Exchanges the password hash for a capability token.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/login", handler.login)

	return router
}

// loginRequest represents the JSON payload expected for authentication.
type loginRequest struct {
	Password string `json:"password"` // Hashed client-side
}

// login handles POST /api/v1/auth/login requests.
//
// # Returns
//   - Writes HTTP 200 OK with the token and media path.
//   - Writes HTTP 400 Bad Request for a malformed payload.
//   - Writes HTTP 401 Unauthorized on mismatch; the gate counts it as a failure.
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	// ── 1. Payload Extraction ─────────────────────────────────────────────

	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 2. Boundary Validation ────────────────────────────────────────────

	if input.Password == "" {
		respond.Error(writer, request, validate.RequiredError("password", "is required"))
		return
	}

	// ── 3. Application Execution ──────────────────────────────────────────

	session, err := handler.authService.Login(input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 4. Presentation Output ────────────────────────────────────────────

	respond.OK(writer, session)
}
