// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package subtitle converts subtitle files into ordered cue lists.
package subtitle

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/asticode/go-astisub"
)

// ErrUnsupportedEncoding is returned for file encodings with no reader.
var ErrUnsupportedEncoding = errors.New("subtitle: unsupported encoding")

// Cue is one timed block of subtitle text.
type Cue struct {
	Start int64  `json:"startMs"`
	End   int64  `json:"endMs"`
	Text  string `json:"text"`
}

// Supported reports whether encoding (a file extension without the dot) can be parsed.
func Supported(encoding string) bool {
	switch strings.ToLower(encoding) {
	case "srt", "ass", "ssa", "vtt":
		return true
	}
	return false
}

// Parse decodes data in the given encoding and returns its cues ordered by start time.
func Parse(encoding string, data []byte) ([]Cue, error) {
	reader := bytes.NewReader(data)

	var (
		subtitles *astisub.Subtitles
		err       error
	)
	switch strings.ToLower(encoding) {
	case "srt":
		subtitles, err = astisub.ReadFromSRT(reader)
	case "ass", "ssa":
		subtitles, err = astisub.ReadFromSSA(reader)
	case "vtt":
		subtitles, err = astisub.ReadFromWebVTT(reader)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("subtitle: parse %s: %w", encoding, err)
	}

	cues := make([]Cue, 0, len(subtitles.Items))
	for _, item := range subtitles.Items {
		lines := make([]string, 0, len(item.Lines))
		for _, line := range item.Lines {
			lines = append(lines, line.String())
		}
		cues = append(cues, Cue{
			Start: item.StartAt.Milliseconds(),
			End:   item.EndAt.Milliseconds(),
			Text:  strings.Join(lines, "\n"),
		})
	}
	sort.SliceStable(cues, func(i, j int) bool { return cues[i].Start < cues[j].Start })

	return cues, nil
}
