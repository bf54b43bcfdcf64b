package effectir

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a CompileError by origin.
type ErrorKind uint8

const (
	// ErrIR covers invalid semantics discovered while lowering or
	// validating the IR: duplicate textures with mismatching
	// dimensions, unknown render-target names, RT size mismatches,
	// unrecognized intrinsics.
	ErrIR ErrorKind = iota
	// ErrBackend covers backend compilation failures (HLSL->bytecode).
	ErrBackend
	// ErrDevice covers a non-success result from a vendor GPU API.
	ErrDevice
	// ErrEnvironment covers an unloadable vendor compiler library.
	ErrEnvironment
)

// CompileError is one diagnostic produced during compilation or
// linking. It satisfies the error interface.
type CompileError struct {
	Kind     ErrorKind
	Message  string
	Warning  bool // downgraded from a hard error (RT/sampler creation fallback)
	Location SourceLocation
}

// Error implements the error interface.
func (e CompileError) Error() string {
	if !e.Location.Empty() {
		return e.Location.Path + ": " + e.Message
	}
	return e.Message
}

// ErrorLog accumulates diagnostics across a compile, per the
// policy: "errors accumulate into the output string; compilation
// continues as long as safe". Every Errorf call sets Failed, whatever
// its kind; Warnf (category 3's downgrades) never does.
type ErrorLog struct {
	entries []CompileError
	Failed  bool
}

// Errorf records a fatal error of the given kind and marks the log
// failed.
func (l *ErrorLog) Errorf(kind ErrorKind, format string, args ...any) {
	l.entries = append(l.entries, CompileError{Kind: kind, Message: fmt.Sprintf(format, args...)})
	l.Failed = true
}

// Warnf records a non-fatal diagnostic (the
// downgraded render-target/sampler creation failures).
func (l *ErrorLog) Warnf(kind ErrorKind, format string, args ...any) {
	l.entries = append(l.entries, CompileError{Kind: kind, Message: fmt.Sprintf(format, args...), Warning: true})
}

// Entries returns every recorded diagnostic in order.
func (l *ErrorLog) Entries() []CompileError { return l.entries }

// Empty reports whether no diagnostics were recorded.
func (l *ErrorLog) Empty() bool { return len(l.entries) == 0 }

// String renders the accumulated log as the multiline, prefixed
// human-readable text: "error:"/"warning:" lines.
func (l *ErrorLog) String() string {
	var b strings.Builder
	for _, e := range l.entries {
		if e.Warning {
			b.WriteString("warning: ")
		} else {
			b.WriteString("error: ")
		}
		b.WriteString(e.Error())
		b.WriteByte('\n')
	}
	return b.String()
}
