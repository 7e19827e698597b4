package service

import "errors"

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrNotAdmin        = errors.New("admin role required")
	ErrForbidden       = errors.New("project not accessible")
	ErrDuplicateName   = errors.New("project name already exists")
	ErrInvalidInput    = errors.New("invalid input")
)
