package validation

import (
	"fmt"

	dErrors "induct/pkg/domain-errors"
)

// HTTP body limits
const (
	// MaxBodySize is the maximum allowed request body size (64 KB).
	// Sufficient for JSON APIs while preventing memory exhaustion attacks.
	MaxBodySize = 64 * 1024
)

// Slice element count limits
const (
	// MaxChecklistItems is the maximum number of checklist entries per
	// verification request. The largest stage defines far fewer; the limit
	// only bounds hostile input.
	MaxChecklistItems = 32
)

// String element length limits
const (
	// MaxFullNameLength is the maximum length of a personnel full name.
	MaxFullNameLength = 200

	// MaxEmailLength is the maximum length of an email address.
	MaxEmailLength = 255

	// MaxItemNameLength is the maximum length of a checklist item name.
	MaxItemNameLength = 100

	// MaxScanCodeLength is the maximum length of a decoded badge code.
	MaxScanCodeLength = 256

	// MaxScanInputLength is the maximum raw scanner input per request.
	MaxScanInputLength = 1024

	// MaxSearchQueryLength is the maximum length of an operator search query.
	MaxSearchQueryLength = 200
)

// CheckSliceCount validates that a slice does not exceed the maximum count.
func CheckSliceCount(fieldName string, count, max int) error {
	if count > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", fieldName, max))
	}
	return nil
}

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}

// CheckEachStringLength validates that each string in a slice does not exceed the maximum length.
func CheckEachStringLength(fieldName string, values []string, max int) error {
	for _, v := range values {
		if len(v) > max {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
		}
	}
	return nil
}
