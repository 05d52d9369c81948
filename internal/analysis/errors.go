package analysis

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failed model call.
type Kind int

const (
	KindUpstream Kind = iota + 1
	KindEmptyResponse
	KindMalformedResponse
)

func (k Kind) String() string {
	switch k {
	case KindUpstream:
		return "upstream_failure"
	case KindEmptyResponse:
		return "empty_response"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

var (
	// ErrNoInput is returned before any model call when neither image nor text is given.
	ErrNoInput = errors.New("no image or text provided for analysis")
	// ErrInvalidImage is returned before any model call when the image is not base64.
	ErrInvalidImage = errors.New("image is not valid base64")
)

// Error is a failed model call. Its message never carries the cause;
// the cause is kept for errors.Is/As and for the log.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("unable to analyze the food item (%s)", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// User-facing messages, in the language of the UI.
const (
	MessageNoInput      = "Nenhuma imagem ou texto fornecido para análise."
	MessageInvalidImage = "Não foi possível ler a imagem enviada. Tente outra foto."
	MessageUnavailable  = "Não foi possível analisar o alimento. Verifique sua conexão ou tente novamente."
	MessageUnexpected   = "Ocorreu um erro inesperado."
)

// UserMessage maps any analysis error to the message shown to the user.
func UserMessage(err error) string {
	var e *Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoInput):
		return MessageNoInput
	case errors.Is(err, ErrInvalidImage):
		return MessageInvalidImage
	case errors.As(err, &e), errors.Is(err, context.DeadlineExceeded):
		return MessageUnavailable
	default:
		return MessageUnexpected
	}
}
