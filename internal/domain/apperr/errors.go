// Package apperr is the error contract shared by every layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for callers and HTTP status mapping.
type Code string

const (
	CodeConfiguration   Code = "CONFIGURATION"
	CodeUpstream        Code = "UPSTREAM"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeRateLimited     Code = "RATE_LIMITED"
	CodeEmptyInput      Code = "EMPTY_INPUT"
	CodeInternal        Code = "INTERNAL"
)

// User-facing messages.
const (
	MsgMissingKey     = "OPENAI_API_KEY não configurada"
	MsgInvalidKey     = "Chave da OpenAI inválida."
	MsgUpstreamFailed = "Falha ao obter uma resposta do modelo de IA."
	MsgEmptyInput     = "Nenhum conteúdo legível foi encontrado nos arquivos."
	MsgUnknown        = "Ocorreu um erro desconhecido."
)

// AppError carries a code, the failing operation and a message safe to show users.
type AppError struct {
	Code    Code
	Op      string // ex: "ChatUseCase.Send"
	Message string
	Status  int // upstream HTTP status, when known
	Err     error
}

// Error renders the operation, message and cause that are set.
func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Op != "" && e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Op != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "error"
	}
}

func (e *AppError) Unwrap() error { return e.Err }

// E builds an AppError.
func E(code Code, op, msg string, err error) error {
	return &AppError{Code: code, Op: op, Message: msg, Err: err}
}

// Upstream builds an UPSTREAM error that remembers the provider status.
func Upstream(op, msg string, status int, err error) error {
	return &AppError{Code: CodeUpstream, Op: op, Message: msg, Status: status, Err: err}
}

// IsCode reports whether err carries code.
func IsCode(err error, code Code) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// Message returns the user-facing message of err.
func Message(err error) string {
	var ae *AppError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	if err == nil {
		return ""
	}
	return MsgUnknown
}

// HTTPStatus maps err to the status an HTTP handler should answer with.
func HTTPStatus(err error) int {
	var ae *AppError
	if errors.As(err, &ae) {
		switch ae.Code {
		case CodeInvalidArgument, CodeEmptyInput:
			return http.StatusBadRequest
		case CodeNotFound:
			return http.StatusNotFound
		case CodeRateLimited:
			return http.StatusTooManyRequests
		case CodeUpstream:
			if ae.Status >= 400 {
				return ae.Status
			}
			return http.StatusBadGateway
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
