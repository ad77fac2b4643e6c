package models

import "errors"

var (
	ErrNoTriangles       = errors.New("models: no triangles in document")
	ErrExternalBuffer    = errors.New("models: buffer data not loaded")
	ErrUnsupportedFormat = errors.New("models: unsupported model format")
)
