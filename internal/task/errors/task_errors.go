package taskerrors

import (
	"net/http"

	"concord-desk/internal/shared/apperror"
)

var (
	ErrTaskNotFound = apperror.New(
		apperror.CodeNotFound,
		"task not found",
		http.StatusNotFound,
	)
	ErrNotAssigner = apperror.New(
		apperror.CodeForbidden,
		"only the assigner can do this",
		http.StatusForbidden,
	)
	ErrNotParticipant = apperror.New(
		apperror.CodeForbidden,
		"only the assigner or an assignee can do this",
		http.StatusForbidden,
	)
	ErrNotAssignee = apperror.New(
		apperror.CodeForbidden,
		"only an assignee can do this",
		http.StatusForbidden,
	)
	ErrSessionClosed = apperror.New(
		apperror.CodeConflict,
		"this task session is no longer open for edits",
		http.StatusConflict,
	)
	ErrNoAssigneeMatch = apperror.New(
		apperror.CodeInvalidInput,
		"no member matches that name",
		http.StatusBadRequest,
	)
	ErrNotReady = apperror.New(
		apperror.CodeConflict,
		"the task needs assignees, details and a deadline first",
		http.StatusConflict,
	)
)
