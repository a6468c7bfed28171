package domain

import "errors"

var (
	// ErrImageNotFound signals a missing image.
	ErrImageNotFound = errors.New("image not found")
	// ErrLabelsNotFound signals that an image has no label document.
	ErrLabelsNotFound = errors.New("labels not found")
	// ErrInvalidImage signals a rejected upload (bad name or unsupported format).
	ErrInvalidImage = errors.New("invalid image")
	// ErrImageTooLarge signals an upload exceeding the configured size cap.
	ErrImageTooLarge = errors.New("image too large")
	// ErrInvalidPrefix signals a missing or malformed suggestion prefix.
	ErrInvalidPrefix = errors.New("invalid prefix")
	// ErrVisionProviderError signals a vision labeling provider failure.
	ErrVisionProviderError = errors.New("vision provider error")
	// ErrBuildInProgress signals that a suggestion rebuild is already running.
	ErrBuildInProgress = errors.New("suggestion rebuild already in progress")
)
