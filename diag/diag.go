// Package diag defines diagnostics reported while parsing markup and style
// sheets and while cascading styles, and the policy deciding whether
// processing may continue after each of them.
package diag

//go:generate go tool go-enum --marshal --names

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Diagnostic code.
// ENUM(TagNotSupported, AttributeNotSupported, AttributeValueInvalid, NoMatchingCloseTag, UnexpectedTagClosing, UnexpectedCharacter, UnrecognizedEntity, CssAttributeNotSupported, CssAttributeValueInvalid, CssSelectorNotSupported, EncodingUnsupported, NoBaseUrlForRelativeReference, ResourceNotFound, ResourceBadFormat)
type Code int

// Structural returns true for codes describing broken markup structure rather
// than a dropped semantic unit.
func (x Code) Structural() bool {
	switch x {
	case CodeNoMatchingCloseTag, CodeUnexpectedTagClosing, CodeUnexpectedCharacter:
		return true
	}
	return false
}

// Resource returns true for codes describing a skipped external resource.
func (x Code) Resource() bool {
	switch x {
	case CodeEncodingUnsupported, CodeNoBaseUrlForRelativeReference, CodeResourceNotFound, CodeResourceBadFormat:
		return true
	}
	return false
}

// ErrMalformedMarkup is returned (wrapped) when diagnostic handler requested
// processing to stop.
var ErrMalformedMarkup = errors.New("malformed markup")

// Diagnostic describes single problem found in the input. Tag, Attr and Value
// are empty when not applicable.
type Diagnostic struct {
	Code    Code
	Tag     string
	Attr    string
	Value   string
	Message string
}

func (d Diagnostic) String() string {
	var sb strings.Builder
	sb.WriteString(d.Code.String())
	if d.Tag != "" {
		sb.WriteString(" <" + d.Tag + ">")
	}
	if d.Attr != "" {
		fmt.Fprintf(&sb, " %s=%q", d.Attr, d.Value)
	} else if d.Value != "" {
		fmt.Fprintf(&sb, " %q", d.Value)
	}
	if d.Message != "" {
		sb.WriteString(": " + d.Message)
	}
	return sb.String()
}

// Handler is called for every diagnostic. Returning false aborts current
// parse or cascade.
type Handler func(d Diagnostic) bool

// AbortError is returned when Handler refused to continue.
type AbortError struct {
	Diagnostic Diagnostic
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedMarkup.Error(), e.Diagnostic.String())
}

func (e *AbortError) Is(target error) bool {
	return target == ErrMalformedMarkup
}

// Reporter logs diagnostics and consults Handler. Zero value is not usable,
// use NewReporter. Reporter is safe for concurrent use.
type Reporter struct {
	log     *zap.Logger
	handler Handler

	mu     sync.Mutex
	counts map[Code]int
}

// NewReporter creates reporter. Nil handler means "always continue".
func NewReporter(handler Handler, log *zap.Logger) *Reporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reporter{
		log:     log.Named("diag"),
		handler: handler,
		counts:  make(map[Code]int),
	}
}

// Report records diagnostic and returns non nil *AbortError when handler
// requested termination.
func (r *Reporter) Report(d Diagnostic) error {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	r.counts[d.Code]++
	r.mu.Unlock()

	lvl := zapcore.DebugLevel
	if d.Code.Structural() || d.Code.Resource() {
		lvl = zapcore.WarnLevel
	}
	if ce := r.log.Check(lvl, d.Message); ce != nil {
		ce.Write(zap.Stringer("code", d.Code), zap.String("tag", d.Tag), zap.String("attr", d.Attr), zap.String("value", d.Value))
	}

	if r.handler == nil || r.handler(d) {
		return nil
	}
	r.log.Debug("Processing aborted by diagnostic handler", zap.Stringer("code", d.Code))
	return &AbortError{Diagnostic: d}
}

// Reportf is a shortcut for diagnostics without attribute context.
func (r *Reporter) Reportf(code Code, tag string, format string, args ...any) error {
	return r.Report(Diagnostic{Code: code, Tag: tag, Message: fmt.Sprintf(format, args...)})
}

// Count returns number of diagnostics with given code seen so far.
func (r *Reporter) Count(code Code) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[code]
}

// Total returns number of diagnostics seen so far.
func (r *Reporter) Total() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	for _, c := range r.counts {
		n += c
	}
	return n
}

// Summary returns logging fields with non-zero counters.
func (r *Reporter) Summary() []zap.Field {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fields := make([]zap.Field, 0, len(r.counts))
	for _, code := range CodeValues() {
		if n := r.counts[code]; n > 0 {
			fields = append(fields, zap.Int(code.String(), n))
		}
	}
	return fields
}
