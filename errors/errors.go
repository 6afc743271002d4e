package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrUnknownFeature     = fmt.Errorf("unknown feature type")
	ErrDuplicateKey       = fmt.Errorf("session key already exists")
	ErrNotFound           = fmt.Errorf("session not found")
	ErrInvalidField       = fmt.Errorf("field not declared for this feature")
	ErrSessionClosed      = fmt.Errorf("session no longer accepts edits")
	ErrInvalidState       = fmt.Errorf("operation not allowed in current session state")
	ErrPublishUnavailable = fmt.Errorf("publish collaborator unavailable")
)
