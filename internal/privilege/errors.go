package privilege

import "errors"

var (
	// ErrUnknownIdentity is returned when a user or group cannot be resolved.
	ErrUnknownIdentity = errors.New("unknown identity")

	// ErrEscalationUnavailable means the process is not root and no
	// escalation helper could be found.
	ErrEscalationUnavailable = errors.New("root privileges required but no escalation helper available")

	// ErrPrivilegeTransitionFailed is returned when setting the effective
	// uid or gid fails.
	ErrPrivilegeTransitionFailed = errors.New("privilege transition failed")

	// ErrUnsupported is returned on platforms without effective-id switching.
	ErrUnsupported = errors.New("privilege switching not supported on this platform")
)
