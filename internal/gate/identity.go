// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gate

import (
	"net"
	"net/http"
	"strings"

	"github.com/taibuivan/mediavault/internal/platform/constants"
)

// ClientID resolves the identifier the gate tracks a request under.
//
// Behind a trusted proxy the forwarded client is used; otherwise the
// connection's source address.
func ClientID(request *http.Request, trustProxy bool) string {
	if trustProxy {
		if forwarded := request.Header.Get(constants.HeaderXForwardedFor); forwarded != "" {
			if first := strings.TrimSpace(strings.Split(forwarded, ",")[0]); first != "" {
				return first
			}
		}
		if ip := strings.TrimSpace(request.Header.Get(constants.HeaderXRealIP)); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return request.RemoteAddr
	}
	return host
}

// BearerToken extracts the token from an "<scheme> <token>" header value.
// Anything that is not exactly two space-separated parts yields "".
func BearerToken(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[1] == "" {
		return ""
	}
	return parts[1]
}
