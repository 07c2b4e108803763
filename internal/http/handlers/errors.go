package handlers

// Error codes carried in ErrorResponse.Code. The generic ones follow the
// HTTP status; the *_failed ones name the link operation that broke.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	ErrCodeCreateFailed = "create_failed"
	ErrCodeListFailed   = "list_failed"
	ErrCodeGetFailed    = "get_failed"
)
