package storage

import "errors"

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName is returned when a project name is already taken.
	ErrDuplicateName = errors.New("name already exists")
)
