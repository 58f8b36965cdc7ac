package credit

import "errors"

// Sentinel errors raised by the credit API. Controllers translate these
// into HTTP statuses; none of them are retried.
var (
	// ErrInvalidCreditRequirements indicates a malformed requirement payload
	// (missing namespace, name, display_name or criteria).
	ErrInvalidCreditRequirements = errors.New("invalid credit requirements")

	// ErrInvalidCreditCourse indicates the course is not an enabled credit course.
	ErrInvalidCreditCourse = errors.New("course is not an enabled credit course")

	// ErrUserIsNotEligible indicates the user has not satisfied every
	// active requirement of the course.
	ErrUserIsNotEligible = errors.New("user is not eligible for credit")

	// ErrRequestAlreadyCompleted indicates the provider already approved or
	// rejected the user's request, so it cannot be re-issued.
	ErrRequestAlreadyCompleted = errors.New("credit request has already been completed")

	// ErrInvalidCreditStatus indicates a status outside {approved, rejected}.
	ErrInvalidCreditStatus = errors.New("invalid credit request status")

	// ErrCreditRequestNotFound indicates no request exists with the given UUID.
	ErrCreditRequestNotFound = errors.New("credit request not found")

	// ErrCreditProviderNotFound indicates no provider exists with the given id.
	ErrCreditProviderNotFound = errors.New("credit provider not found")
)
