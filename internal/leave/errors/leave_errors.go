package leaveerrors

import (
	"net/http"

	"concord-desk/internal/shared/apperror"
)

var (
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrTicketNotFound = apperror.New(
		apperror.CodeNotFound,
		"approval ticket not found",
		http.StatusNotFound,
	)
	ErrBalanceNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave balance not found",
		http.StatusNotFound,
	)
	ErrIllegalTransition = apperror.New(
		apperror.CodeConflict,
		"the request is not in a state that allows this action",
		http.StatusConflict,
	)
	ErrNotTicketApprover = apperror.New(
		apperror.CodeForbidden,
		"only the reviewer this stage is addressed to can act on it",
		http.StatusForbidden,
	)
	ErrNotOwner = apperror.New(
		apperror.CodeForbidden,
		"only the requesting member can do this",
		http.StatusForbidden,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"date range is invalid",
		http.StatusBadRequest,
	)
	ErrInvalidReason = apperror.New(
		apperror.CodeInvalidInput,
		"unknown leave reason",
		http.StatusBadRequest,
	)
	ErrInvalidPeriod = apperror.New(
		apperror.CodeInvalidInput,
		"half-day period must be FORENOON or AFTERNOON",
		http.StatusBadRequest,
	)
)
