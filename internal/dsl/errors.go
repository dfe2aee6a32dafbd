package dsl

import "github.com/pkg/errors"

var (
	// ErrParseMismatch marks a document without any recognized table statement.
	ErrParseMismatch = errors.New("no table statement recognized")
	// ErrDanglingRename marks a rename whose source table or column is unknown.
	ErrDanglingRename = errors.New("rename source not found")
)
