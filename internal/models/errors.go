package models

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
)

// Collaborator failure kinds, distinguishable by the endpoint's status
// contract. Callers branch with errors.Is.
var (
	ErrUnauthorized = errors.New("collaborator: unauthorized")
	ErrForbidden    = errors.New("collaborator: forbidden")
	ErrRateLimited  = errors.New("collaborator: rate limited")
	ErrBadRequest   = errors.New("collaborator: bad request")
	ErrServerError  = errors.New("collaborator: server error")
)

// classifyError maps an API error onto one of the failure kinds, keeping the
// original error in the chain.
func classifyError(err error) error {
	var apierr *openai.Error
	if !errors.As(err, &apierr) {
		return err
	}
	kind := ErrServerError
	switch apierr.StatusCode {
	case http.StatusUnauthorized:
		kind = ErrUnauthorized
	case http.StatusForbidden:
		kind = ErrForbidden
	case http.StatusTooManyRequests:
		kind = ErrRateLimited
	case http.StatusBadRequest:
		kind = ErrBadRequest
	}
	return fmt.Errorf("%w: %w", kind, err)
}
