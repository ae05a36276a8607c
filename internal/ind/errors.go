package ind

import (
	"errors"
	"fmt"
)

// ErrorKind classifies codec failures
type ErrorKind int

const (
	// TooSmall means the file cannot even hold a record count
	TooSmall ErrorKind = iota + 1
	// Corrupt means the content contradicts the detected layout
	Corrupt
	// Io wraps an underlying filesystem failure
	Io
)

func (k ErrorKind) String() string {
	switch k {
	case TooSmall:
		return "too small"
	case Corrupt:
		return "corrupt"
	case Io:
		return "io"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is checks against a FormatError
var (
	ErrTooSmall = errors.New("index file too small")
	ErrCorrupt  = errors.New("index file corrupt")
	ErrIO       = errors.New("index file io")
)

// FormatError is returned by every decode and encode path in this package
type FormatError struct {
	Kind ErrorKind
	Path string
	Msg  string
	Err  error
}

func (e *FormatError) Error() string {
	prefix := "index " + e.Kind.String()
	if e.Path != "" {
		prefix = fmt.Sprintf("%s (%s)", prefix, e.Path)
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", prefix, e.Msg, e.Err)
	case e.Msg != "":
		return prefix + ": " + e.Msg
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	default:
		return prefix
	}
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels
func (e *FormatError) Is(target error) bool {
	switch target {
	case ErrTooSmall:
		return e.Kind == TooSmall
	case ErrCorrupt:
		return e.Kind == Corrupt
	case ErrIO:
		return e.Kind == Io
	}
	return false
}

func corruptf(format string, args ...any) error {
	return &FormatError{Kind: Corrupt, Msg: fmt.Sprintf(format, args...)}
}

func tooSmallf(format string, args ...any) error {
	return &FormatError{Kind: TooSmall, Msg: fmt.Sprintf(format, args...)}
}

func ioError(path string, err error) error {
	return &FormatError{Kind: Io, Path: path, Err: err}
}

// withPath attaches the file path to a FormatError produced by the in-memory codec
func withPath(err error, path string) error {
	var fe *FormatError
	if errors.As(err, &fe) && fe.Path == "" {
		cp := *fe
		cp.Path = path
		return &cp
	}
	return err
}

// annotate prefixes the message of a FormatError with context
func annotate(err error, format string, args ...any) error {
	var fe *FormatError
	if !errors.As(err, &fe) {
		return err
	}
	cp := *fe
	prefix := fmt.Sprintf(format, args...)
	if cp.Msg == "" {
		cp.Msg = prefix
	} else {
		cp.Msg = prefix + ": " + cp.Msg
	}
	return &cp
}
