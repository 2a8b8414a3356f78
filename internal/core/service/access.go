package service

// Access is the outcome of gating a page on the session.
type Access int

const (
	// AccessResolving means the startup check is still running; show a
	// loading indicator and decide later.
	AccessResolving Access = iota
	AccessUnauthenticated
	AccessDenied
	AccessGranted
)

func (a Access) String() string {
	switch a {
	case AccessResolving:
		return "resolving"
	case AccessUnauthenticated:
		return "unauthenticated"
	case AccessDenied:
		return "denied"
	case AccessGranted:
		return "granted"
	default:
		return "unknown"
	}
}

// EvaluateAccess decides a guarded page. An empty roles list admits any
// authenticated user; otherwise the user's role must match one exactly.
func EvaluateAccess(snap Snapshot, roles []string) Access {
	if snap.Loading {
		return AccessResolving
	}
	if snap.User == nil {
		return AccessUnauthenticated
	}
	if len(roles) > 0 && !snap.User.HasRole(roles...) {
		return AccessDenied
	}
	return AccessGranted
}
