package apperror

const (
	// Client errors (4xx)
	CodeInvalidInput = "INVALID_INPUT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeStaleRecord  = "STALE_RECORD"

	// Server errors (5xx)
	CodeStorageFault      = "STORAGE_FAULT"
	CodeNotificationFault = "NOTIFICATION_FAULT"
	CodeInternalError     = "INTERNAL_ERROR"
)
