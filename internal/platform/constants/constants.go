// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, header names, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Gate: Token issuer, header names, reserved folders.
  - JSON: Field identifiers used by the response envelopes.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "mediavault"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 15 * time.Second

	// DefaultWriteTimeout is zero: media responses stream for as long as the client reads.
	DefaultWriteTimeout = 0

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 5 * time.Second

	// GlobalRequestTimeout bounds API handlers. Static media is exempt.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second

	// StartupTimeout bounds external connections made before serving.
	StartupTimeout = 30 * time.Second
)

// # Gate

const (
	// TokenIssuer is the 'iss' claim of every capability token.
	TokenIssuer = "mediavault"

	// ReservedAssetsFolder is the public folder inside the grant root that is never purged.
	ReservedAssetsFolder = "assets"

	// HeaderAuthorization carries "<scheme> <token>".
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
)

// # Media Kinds

const (
	KindManga     = "manga"
	KindVideo     = "video"
	KindMusic     = "music"
	KindImage     = "image"
	KindSubtitles = "subtitles"
	KindAssets    = "assets"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldError   = "error"
	FieldCode    = "code"
	FieldItems   = "items"
	FieldTotal   = "total"
	FieldStatus  = "status"
	FieldTitle   = "title"
	FieldChecks  = "checks"
	FieldToken   = "token"
	FieldVersion = "version"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixCatalog = "catalog:"
)
