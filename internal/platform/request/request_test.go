// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package requestutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/mediavault/internal/platform/apperr"
)

func withParam(request *http.Request, name, value string) *http.Request {
	routeContext := chi.NewRouteContext()
	routeContext.URLParams.Add(name, value)
	return request.WithContext(context.WithValue(request.Context(), chi.RouteCtxKey, routeContext))
}

/*
TestParam decodes values chi matched on the raw path and leaves decoded ones alone.
*/
func TestParam(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		raw     string
		want    string
		wantErr bool
	}{
		{"decoded path", "/manga/100%25%20Love", "100% Love", "100% Love", false},
		{"raw path", "/manga/Steins%3BGate", "Steins%3BGate", "Steins;Gate", false},
		{"malformed raw path", "/manga/Re%3AZero", "Re%3AZero%", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := withParam(httptest.NewRequest(http.MethodGet, tt.target, nil), "title", tt.raw)

			got, err := Param(request, "title")
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
