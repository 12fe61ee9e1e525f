package types

import "errors"

// Sentinel errors shared across repositories, services and handlers.
// Handlers translate these to the HTTP codes mandated by the API:
// ErrNotFound -> 404, ErrConflict -> 409, ErrUnauthenticated -> 401 on the
// login path and 403 at the bearer-token guard, ErrPermissionDenied -> 401.
var (
	ErrNotFound         = errors.New("requested item not found")
	ErrConflict         = errors.New("item already exists or conflict")
	ErrUnauthenticated  = errors.New("authentication required or invalid credentials")
	ErrPermissionDenied = errors.New("permission denied")
	ErrBadRequest       = errors.New("bad request")
)
