package driver

import "fmt"

// ParseError means the input bytes do not decode under the declared
// encoding. It wraps the decoder's diagnostic.
type ParseError struct {
	Encoding FileType
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse input as %s: %v", e.Encoding, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// InvalidModuleError means the input decoded but failed structural
// verification. Distinct from ParseError so callers can tell malformed
// bytes from a well-formed encoding of a broken program.
type InvalidModuleError struct {
	Err error
}

func (e *InvalidModuleError) Error() string {
	return fmt.Sprintf("invalid module: %v", e.Err)
}

func (e *InvalidModuleError) Unwrap() error { return e.Err }

// NotApplicableError means the api options never asked for this
// compiler. The caller is expected to route the job elsewhere; this is
// a routing signal, not a failure of the input.
type NotApplicableError struct{}

func (e *NotApplicableError) Error() string {
	return "api options do not request vector compilation"
}

// OptionError reports a missing argument, an unknown option under
// strict mode, or an invalid option value. Arg is the offending
// argument as written.
type OptionError struct {
	Arg      string
	Internal bool
}

func (e *OptionError) Error() string {
	family := "api"
	if e.Internal {
		family = "internal"
	}
	return fmt.Sprintf("bad %s option %q", family, e.Arg)
}

// TargetMachineError means the configured target cannot be
// instantiated, usually because the CPU name is not one the target
// defines.
type TargetMachineError struct {
	Triple string
	CPU    string
}

func (e *TargetMachineError) Error() string {
	return fmt.Sprintf("cannot create target machine for %s, cpu %q", e.Triple, e.CPU)
}
