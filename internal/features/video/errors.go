package video

import "errors"

var (
	ErrVideoNotFound     = errors.New("video not found")
	ErrTitleRequired     = errors.New("video title is required")
	ErrCatalogFull       = errors.New("video catalog is full")
	ErrFileRequired      = errors.New("video file is required")
	ErrFileEmpty         = errors.New("video file is empty")
	ErrInvalidUnlockDate = errors.New("invalid unlock date")
)
