package employeeerrors

import (
	"net/http"

	"concord-desk/internal/shared/apperror"
)

var (
	ErrInvalidMemberID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid member id",
		http.StatusBadRequest,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
)
