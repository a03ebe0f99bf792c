package apperror

import "net/http"

var (
	ErrNotFound = New(
		CodeNotFound,
		"Resource not found",
		http.StatusNotFound,
	)

	ErrForbidden = New(
		CodeForbidden,
		"You do not have permission to access this resource",
		http.StatusForbidden,
	)

	ErrInternal = New(
		CodeInternalError,
		"An unexpected error occurred",
		http.StatusInternalServerError,
	)

	ErrUnauthorized = New(
		CodeUnauthorized,
		"Authentication is required",
		http.StatusUnauthorized,
	)

	ErrInvalidInput = New(
		CodeInvalidInput,
		"The provided input is invalid",
		http.StatusBadRequest,
	)
)

// StorageFault wraps an I/O-level storage error. It is fatal to the triggering
// operation only and is never retried automatically.
func StorageFault(err error) *AppError {
	return Wrap(err, CodeStorageFault, "Storage operation failed", http.StatusInternalServerError)
}

// StaleRecord reports a concurrent-mutation conflict: the record's persisted
// state no longer matches what the caller acted on.
func StaleRecord(message string) *AppError {
	return New(CodeStaleRecord, message, http.StatusConflict)
}

// NotificationFault wraps an outbound delivery failure. Callers log it and
// carry on; it never aborts the surrounding workflow.
func NotificationFault(err error) *AppError {
	return Wrap(err, CodeNotificationFault, "Notification delivery failed", http.StatusBadGateway)
}
