// Package failure defines the closed set of error kinds produced while
// syncing secrets. Each kind maps to one reporting policy: FileNotFound
// aborts the run, every other kind is reported and the run continues.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the category of a failure
type Kind int

const (
	// Unknown is returned by KindOf for errors outside the taxonomy
	Unknown Kind = iota
	FileNotFound
	Decrypt
	Parse
	CommandExecution
	SetValue
	Encoding
)

func (k Kind) String() string {
	switch k {
	case FileNotFound:
		return "file not found"
	case Decrypt:
		return "decrypt"
	case Parse:
		return "parse"
	case CommandExecution:
		return "command execution"
	case SetValue:
		return "set value"
	case Encoding:
		return "encoding"
	default:
		return "unknown"
	}
}

// Error is a tagged failure. Path and Key are optional context.
type Error struct {
	Kind Kind
	Path string
	Key  string
	Err  error
}

// New wraps err with the given kind
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Errorf builds an Error of the given kind from a format string
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// WithPath returns a copy of e annotated with the file path
func (e *Error) WithPath(path string) *Error {
	c := *e
	c.Path = path
	return &c
}

// WithKey returns a copy of e annotated with the secret key
func (e *Error) WithKey(key string) *Error {
	c := *e
	c.Key = key
	return &c
}

func (e *Error) Error() string {
	msg := new(strings.Builder)
	msg.WriteString(e.Kind.String())
	msg.WriteString(" error")
	if e.Path != "" {
		fmt.Fprintf(msg, " in %s", e.Path)
	}
	if e.Key != "" {
		fmt.Fprintf(msg, " for key %q", e.Key)
	}
	if e.Err != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Err.Error())
	}
	return msg.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first Error found in err's chain, or Unknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// Is reports whether err carries a failure of the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
