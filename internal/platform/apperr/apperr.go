// Package apperr はハンドラ・サービス共通のエラーモデルと結果エンベロープ。
// REST と GraphQL で同じ形 {success, message, data, error{code, details}} を返す。
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeForbidden           Code = "FORBIDDEN"
	CodeBookNotFound        Code = "BOOK_NOT_FOUND"
	CodeTransactionNotFound Code = "TRANSACTION_NOT_FOUND"
	CodeFineNotFound        Code = "FINE_NOT_FOUND"
	CodeNotFound            Code = "NOT_FOUND"
	CodeBookUnavailable     Code = "BOOK_UNAVAILABLE"
	CodeAlreadyBorrowed     Code = "ALREADY_BORROWED"
	CodeAlreadyReturned     Code = "ALREADY_RETURNED"
	CodeFineAlreadyPaid     Code = "FINE_ALREADY_PAID"
	CodeConflict            Code = "CONFLICT"
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeInvariantViolation  Code = "INVARIANT_VIOLATION"
	CodeSystem              Code = "SYSTEM_ERROR"
)

type APIError struct {
	Code    Code
	Message string
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func Unauthorized(msg string) *APIError { return &APIError{Code: CodeUnauthorized, Message: msg} }
func Forbidden(msg string) *APIError    { return &APIError{Code: CodeForbidden, Message: msg} }
func Invalid(msg string) *APIError      { return &APIError{Code: CodeValidation, Message: msg} }
func Conflict(msg string) *APIError     { return &APIError{Code: CodeConflict, Message: msg} }

func NotFound(code Code, msg string) *APIError { return &APIError{Code: code, Message: msg} }

// Invariant は在庫台帳などの整合性違反。呼び出し元には詳細を出さない
func Invariant(msg string) *APIError { return &APIError{Code: CodeInvariantViolation, Message: msg} }

func New(code Code, msg string) *APIError { return &APIError{Code: code, Message: msg} }

// Is は err が code の APIError かどうか
func Is(err error, code Code) bool {
	var api *APIError
	return errors.As(err, &api) && api.Code == code
}

func ToHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeUnauthorized:
			return http.StatusUnauthorized
		case CodeForbidden:
			return http.StatusForbidden
		case CodeBookNotFound, CodeTransactionNotFound, CodeFineNotFound, CodeNotFound:
			return http.StatusNotFound
		case CodeBookUnavailable, CodeAlreadyBorrowed, CodeAlreadyReturned, CodeFineAlreadyPaid, CodeConflict:
			return http.StatusBadRequest
		case CodeValidation:
			return http.StatusUnprocessableEntity
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

// 内部エラー時に返す固定文言
const genericMessage = "An unexpected error occurred. Please try again later."

// IsInternal: ログに残すべき（呼び出し元には伏せる）エラーか
func IsInternal(err error) bool {
	return ToHTTPStatus(err) == http.StatusInternalServerError
}
