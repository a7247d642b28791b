// Package errors provides structured error handling for ledger operations.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Operational/access errors
	CodeNotOperational Code = "NOT_OPERATIONAL"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeNotOwner       Code = "NOT_OWNER"

	// Airline errors
	CodeNotFunded         Code = "NOT_FUNDED"
	CodeAlreadyFunded     Code = "ALREADY_FUNDED"
	CodeNotRegistered     Code = "NOT_REGISTERED"
	CodeAlreadyRegistered Code = "ALREADY_REGISTERED"
	CodeAlreadyVoted      Code = "ALREADY_VOTED"
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"

	// Flight errors
	CodeDuplicateFlight Code = "DUPLICATE_FLIGHT"
	CodeUnknownFlight   Code = "UNKNOWN_FLIGHT"

	// Insurance errors
	CodeInsuranceCapExceeded Code = "INSURANCE_CAP_EXCEEDED"
	CodePolicyClosed         Code = "POLICY_CLOSED"
	CodeNoCredit             Code = "NO_CREDIT"

	// Oracle errors
	CodeRequestPending   Code = "REQUEST_PENDING"
	CodeRequestFinalized Code = "REQUEST_FINALIZED"
	CodeInvalidIndex     Code = "INVALID_INDEX"

	// Command/envelope errors
	CodeInvalidCommand Code = "INVALID_COMMAND"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// HTTPStatus maps domain codes to HTTP response statuses.
func (c Code) HTTPStatus() int {
	switch c {
	// Service paused for maintenance; distinct from auth failures so
	// monitoring can tell "paused" from "bug".
	case CodeNotOperational:
		return http.StatusServiceUnavailable

	// Caller is not allowed to perform the operation.
	case CodeUnauthorized, CodeNotOwner:
		return http.StatusForbidden

	// Business-rule rejections on otherwise well-formed requests.
	case CodeNotFunded,
		CodeAlreadyFunded,
		CodeNotRegistered,
		CodeAlreadyRegistered,
		CodeAlreadyVoted,
		CodeDuplicateFlight,
		CodePolicyClosed,
		CodeNoCredit,
		CodeRequestPending,
		CodeRequestFinalized,
		CodeInvalidIndex:
		return http.StatusConflict

	// User-correctable input failures.
	case CodeInsufficientFunds,
		CodeInsuranceCapExceeded,
		CodeInvalidCommand:
		return http.StatusBadRequest

	case CodeUnknownFlight, CodeNotFound:
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}
