package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why an artifact could not be fully scanned.
type ErrorKind string

const (
	ErrKindFetch     ErrorKind = "fetch"
	ErrKindTimeout   ErrorKind = "timeout"
	ErrKindDecode    ErrorKind = "decode"
	ErrKindTooLarge  ErrorKind = "too_large"
	ErrKindCancelled ErrorKind = "cancelled"
	ErrKindInternal  ErrorKind = "internal"
)

var (
	// ErrDecode marks binary or otherwise unreadable content.
	ErrDecode = errors.New("artifact content cannot be decoded as text")
	// ErrSkippedTooLarge marks artifacts above the configured size limit.
	ErrSkippedTooLarge = errors.New("artifact exceeds maximum size")
)

// ArtifactError is the per-artifact failure captured into ArtifactResult.
type ArtifactError struct {
	Path  string    `json:"-"`
	Kind  ErrorKind `json:"kind"`
	Stage string    `json:"stage,omitempty"`
	Msg   string    `json:"message"`
	Err   error     `json:"-"`
}

func NewArtifactError(path string, kind ErrorKind, stage string, err error) *ArtifactError {
	e := &ArtifactError{Path: path, Kind: kind, Stage: stage, Err: err}
	if err != nil {
		e.Msg = err.Error()
	} else {
		e.Msg = string(kind)
	}
	return e
}

func (e *ArtifactError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s during %s: %s", e.Path, e.Kind, e.Stage, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Kind, e.Msg)
}

func (e *ArtifactError) Unwrap() error { return e.Err }
