package errcode

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	InvalidParams Code = "invalid_params"
	Unsupported   Code = "unsupported"
	Timeout       Code = "timeout"

	// Boot-time peripheral failure. Only ever fatal during startup.
	HardwareError Code = "hardware_error"

	// Task registration on a scheduler.
	SpawnFailed Code = "spawn_failed"
	SpawnClosed Code = "spawn_closed"

	// Association, DNS, link or lease failures. Always retried.
	TransientNetwork Code = "transient_network"

	// One-shot resources.
	AlreadyStarted     Code = "already_started"
	ArenaInUse         Code = "arena_in_use"
	AlreadyInitialized Code = "already_initialized"

	Error Code = "error" // generic fallback
)

// E wraps a Code with an operation, message and cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	} else if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.X) match a wrapped code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap attaches a code and operation to err. A nil err stays nil.
func Wrap(c Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// IsFatalAtBoot reports whether err should abort the boot sequence.
// Everything else degrades or retries.
func IsFatalAtBoot(err error) bool {
	return Of(err) == HardwareError
}
