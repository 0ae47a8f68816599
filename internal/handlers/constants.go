package handlers

const (
	ErrInvalidRequestBody  = "Invalid request body"
	ErrUnauthorized        = "Unauthorized"
	ErrForbidden           = "Forbidden"
	ErrNotFound            = "Not found"
	ErrTooManyRequests     = "Too many requests"
	ErrInternalServerError = "Internal server error"
	ErrChapterLocked       = "Chapter is locked"

	// maxBodyBytes caps JSON request bodies
	maxBodyBytes = 64 << 10
)
