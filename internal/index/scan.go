// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package index

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// Chapters maps a chapter directory to its page files, in name order.
type Chapters map[string][]string

// Episodes lists the episode files of a video title, in name order.
type Episodes []string

// SubtitleFile is one decoded subtitle file name.
type SubtitleFile struct {
	Track    string `json:"track"`
	Encoding string `json:"encoding"`
	File     string `json:"file"`
}

// SubtitleTracks maps an episode name to its subtitle files.
type SubtitleTracks map[string][]SubtitleFile

// ScanChapters reads a manga title: every sub-directory is a chapter whose
// files are pages. An unreadable chapter fails the whole title.
func ScanChapters(fsys fs.FS, dir string) (Chapters, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	chapters := make(Chapters)
	for _, entry := range entries {
		if !entry.IsDir() || hidden(entry.Name()) {
			continue
		}

		pages, err := files(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("chapter %s: %w", entry.Name(), err)
		}
		chapters[entry.Name()] = pages
	}

	return chapters, nil
}

// ScanEpisodes reads a video title: every regular file is an episode.
func ScanEpisodes(fsys fs.FS, dir string) (Episodes, error) {
	episodes, err := files(fsys, dir)
	if err != nil {
		return nil, err
	}
	return Episodes(episodes), nil
}

// ScanSubtitles reads a subtitle title and groups its files by episode.
// Files whose names cannot be decoded are skipped.
func ScanSubtitles(fsys fs.FS, dir string) (SubtitleTracks, error) {
	names, err := files(fsys, dir)
	if err != nil {
		return nil, err
	}

	tracks := make(SubtitleTracks)
	for _, name := range names {
		episode, track, encoding, ok := DecodeSubtitleName(name)
		if !ok {
			continue
		}
		tracks[episode] = append(tracks[episode], SubtitleFile{Track: track, Encoding: encoding, File: name})
	}

	return tracks, nil
}

// DecodeSubtitleName splits "<episode>.<track>.<encoding>" on its last two dots.
//
// Names with fewer than three dot-separated segments, or with an empty
// segment, are reported as unparseable with ok=false.
func DecodeSubtitleName(name string) (episode, track, encoding string, ok bool) {
	segments := strings.Split(name, ".")
	if len(segments) < 3 {
		return "", "", "", false
	}

	count := len(segments)
	episode = strings.Join(segments[:count-2], ".")
	track = segments[count-2]
	encoding = segments[count-1]

	if episode == "" || track == "" || encoding == "" {
		return "", "", "", false
	}
	return episode, track, encoding, true
}

// files lists the visible regular file names of dir in name order.
func files(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || hidden(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	return names, nil
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
