package collab

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrDatasetNotFound   = errors.New("dataset not found")
	ErrQueryNotFound     = errors.New("query not found")
	ErrMessageNotFound   = errors.New("message not found")
	ErrAccessDenied      = errors.New("access denied")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidQuery      = errors.New("invalid query")
	ErrOwnerCannotLeave  = errors.New("session owner cannot leave")
	ErrInvalidAccessCode = errors.New("invalid access code")
)
