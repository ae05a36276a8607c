package sprite

import (
	"errors"
	"fmt"
)

// ErrorKind classifies detection failures
type ErrorKind int

const (
	EmptyImage ErrorKind = iota + 1
	UnreadablePixels
)

var (
	ErrEmptyImage       = errors.New("image has no pixels")
	ErrUnreadablePixels = errors.New("image pixels cannot be read")
)

// DetectionError is returned when an image cannot be segmented at all.
// A poor background match is never an error, only a worse region list.
type DetectionError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *DetectionError) Error() string {
	msg := ErrUnreadablePixels.Error()
	if e.Kind == EmptyImage {
		msg = ErrEmptyImage.Error()
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DetectionError) Unwrap() error {
	return e.Err
}

func (e *DetectionError) Is(target error) bool {
	switch target {
	case ErrEmptyImage:
		return e.Kind == EmptyImage
	case ErrUnreadablePixels:
		return e.Kind == UnreadablePixels
	}
	return false
}
