// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package exitcode_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/mediavault/internal/platform/exitcode"
)

/*
TestCodeOf verifies that every category maps to its own exit status, even when wrapped.
*/
func TestCodeOf(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name     string
		category exitcode.Category
		want     int
	}{
		{"config", exitcode.Config, 78},
		{"environment", exitcode.Environment, 71},
		{"database", exitcode.Database, 69},
		{"admin", exitcode.Admin, 66},
		{"filesystem", exitcode.Filesystem, 74},
	}

	seen := map[int]bool{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fmt.Errorf("startup: %w", exitcode.Wrap(tt.category, "step", cause))
			assert.Equal(t, tt.want, exitcode.CodeOf(err))
			assert.ErrorIs(t, err, cause)
			assert.False(t, seen[tt.want], "exit codes must be distinct")
			seen[tt.want] = true
		})
	}
}

/*
TestWrap_Nil keeps nil errors nil and untagged errors at status 1.
*/
func TestWrap_Nil(t *testing.T) {
	require.NoError(t, exitcode.Wrap(exitcode.Config, "step", nil))
	assert.Equal(t, 1, exitcode.CodeOf(errors.New("plain")))
}
