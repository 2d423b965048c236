// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package exitcode classifies fatal startup failures so operators can triage a
crashed server from its exit status alone.

The codes follow the BSD sysexits(3) convention.

	Config       78  EX_CONFIG       missing or invalid configuration keys
	Environment  71  EX_OSERR        media roots or runtime environment unusable
	Database     69  EX_UNAVAILABLE  metadata store or cache unreachable
	Admin        66  EX_NOINPUT      password hash or blacklist ledger unreadable
	Filesystem   74  EX_IOERR        grant root or initial media index unreadable
*/
package exitcode

import (
	"errors"
	"fmt"
)

// Category is the class of a fatal startup failure.
type Category int

const (
	Config      Category = 78
	Environment Category = 71
	Database    Category = 69
	Admin       Category = 66
	Filesystem  Category = 74
)

// String returns the category label used in startup logs.
func (c Category) String() string {
	switch c {
	case Config:
		return "configuration"
	case Environment:
		return "environment"
	case Database:
		return "database"
	case Admin:
		return "administrative"
	case Filesystem:
		return "filesystem"
	}
	return "unknown"
}

// Code returns the process exit status for the category.
func (c Category) Code() int { return int(c) }

// FatalError is a startup failure the process cannot recover from.
type FatalError struct {
	Category Category
	Step     string
	Err      error
}

// Error implements the error interface.
func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Category, e.Step, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *FatalError) Unwrap() error { return e.Err }

// Wrap tags err with a category and the startup step that produced it.
// It returns nil when err is nil so call sites can wrap unconditionally.
func Wrap(category Category, step string, err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Category: category, Step: step, Err: err}
}

// CodeOf returns the exit status for err, or 1 for untagged errors.
func CodeOf(err error) int {
	var fatal *FatalError
	if errors.As(err, &fatal) {
		return fatal.Category.Code()
	}
	return 1
}
