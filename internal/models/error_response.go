package models

// ErrorResponse описывает структуру стандартного ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody содержит код и текст ошибки.
type ErrorBody struct {
	Code    ErrorResponseErrorCode `json:"code"`
	Message string                 `json:"message"`
}

// ErrorResponseErrorCode задаёт возможные значения кода ошибки.
type ErrorResponseErrorCode string

// Возможные значения кода ошибки.
const (
	NOCANDIDATE ErrorResponseErrorCode = "NO_CANDIDATE"
	NOTASSIGNED ErrorResponseErrorCode = "NOT_ASSIGNED"
	NOTFOUND    ErrorResponseErrorCode = "NOT_FOUND"
	PREXISTS    ErrorResponseErrorCode = "PR_EXISTS"
	PRMERGED    ErrorResponseErrorCode = "PR_MERGED"
	TEAMEXISTS  ErrorResponseErrorCode = "TEAM_EXISTS"
)
