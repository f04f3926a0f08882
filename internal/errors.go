package internal

import "fmt"

// FailureKind classifies a gateway failure.
type FailureKind int

const (
	// FailureNetwork means the transport call never produced an HTTP response
	// (DNS failure, refused connection, unreachable backend).
	FailureNetwork FailureKind = iota
	// FailureHTTP means the backend responded with a non-2xx status after the
	// retry budget was exhausted.
	FailureHTTP
	// FailureAuth means the refresh endpoint rejected the stored credentials
	// and the session has been terminated.
	FailureAuth
)

// String returns the wire-style name of the failure kind.
func (k FailureKind) String() string {
	switch k {
	case FailureNetwork:
		return "NETWORK_ERROR"
	case FailureHTTP:
		return "HTTP_ERROR"
	case FailureAuth:
		return "AUTH_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// Failure is the classified error surfaced by the Gateway.
type Failure struct {
	Kind      FailureKind
	Message   string
	Path      string // original request path, when known
	Status    int    // HTTP status code for FailureHTTP
	Retryable bool   // callers may re-issue the request by their own policy
	Silent    bool   // suppress normal-verbosity logging (offline backend)
	Err       error  // underlying transport error, when any
}

func (f *Failure) Error() string {
	switch {
	case f.Kind == FailureHTTP && f.Path != "":
		return fmt.Sprintf("%s [%s]: status %d: %s", f.Kind, f.Path, f.Status, f.Message)
	case f.Path != "":
		return fmt.Sprintf("%s [%s]: %s", f.Kind, f.Path, f.Message)
	default:
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewNetworkFailure builds the failure for a transport-level error. Network
// failures are silent and never clear credentials.
func NewNetworkFailure(path string, err error) *Failure {
	return &Failure{
		Kind:      FailureNetwork,
		Message:   "backend offline",
		Path:      path,
		Retryable: true,
		Silent:    true,
		Err:       err,
	}
}

// NewHTTPFailure builds the failure for a non-2xx response.
func NewHTTPFailure(path string, status int, message string) *Failure {
	if message == "" {
		message = "request failed"
	}
	return &Failure{
		Kind:    FailureHTTP,
		Message: message,
		Path:    path,
		Status:  status,
	}
}

// NewAuthFailure builds the failure for a confirmed credential rejection.
func NewAuthFailure(message string) *Failure {
	if message == "" {
		message = "session terminated"
	}
	return &Failure{Kind: FailureAuth, Message: message}
}

// AsFailure unwraps err into a *Failure, if it is one.
func AsFailure(err error) (*Failure, bool) {
	f, ok := err.(*Failure)
	return f, ok
}

// IsNetworkFailure reports whether err is a transport-classified failure.
func IsNetworkFailure(err error) bool {
	f, ok := AsFailure(err)
	return ok && f.Kind == FailureNetwork
}

// StateError represents errors accessing the local state database
type StateError struct {
	Key string
	Op  string // "open", "get", "set", "delete"
	Err error
}

func (e *StateError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("state error: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("state error: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}
