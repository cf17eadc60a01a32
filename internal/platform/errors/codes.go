// Package errors provides structured domain errors with transport mappings.
package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Character errors
	CodeCharacterNotFound       Code = "CHARACTER_NOT_FOUND"
	CodeCharacterInvalidAttr    Code = "CHARACTER_INVALID_ATTRIBUTE"
	CodeCharacterInvalidDetail  Code = "CHARACTER_INVALID_DETAIL"
	CodeCharacterInvalidScore   Code = "CHARACTER_INVALID_SCORE"
	CodeCharacterInvalidPayload Code = "CHARACTER_INVALID_PAYLOAD"

	// Request errors
	CodeMissingParameter Code = "MISSING_PARAMETER"
	CodeUploadRejected   Code = "UPLOAD_REJECTED"

	// Session errors
	CodeSessionInvalid Code = "SESSION_INVALID"

	// Dice errors
	CodeDiceInvalidSpec Code = "DICE_INVALID_SPEC"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeCharacterInvalidAttr,
		CodeCharacterInvalidDetail,
		CodeCharacterInvalidScore,
		CodeCharacterInvalidPayload,
		CodeMissingParameter,
		CodeUploadRejected,
		CodeDiceInvalidSpec:
		return codes.InvalidArgument
	case CodeCharacterNotFound:
		return codes.FailedPrecondition
	case CodeSessionInvalid:
		return codes.Unauthenticated
	default:
		return codes.Internal
	}
}

// HTTPStatus maps domain codes to HTTP status codes.
//
// The character API reports every client-visible failure as 400, matching the
// contract browsers already depend on; only unknown failures become 500.
func (c Code) HTTPStatus() int {
	switch c.GRPCCode() {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.Unauthenticated:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
