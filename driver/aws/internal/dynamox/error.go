package dynamox

import (
	"errors"

	"github.com/aws/smithy-go"
)

// IsValidation returns true if err is a DynamoDB validation error.
//
// The SDK has no modelled exception type for validation errors, so they can
// only be identified by their error code.
func IsValidation(err error) bool {
	var e *smithy.GenericAPIError
	if errors.As(err, &e) {
		return e.ErrorCode() == "ValidationException"
	}
	return false
}
