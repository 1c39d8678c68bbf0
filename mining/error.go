// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

// ErrorCode identifies a kind of error.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrMandatoryNotFound indicates the transaction that must be
	// included in the block does not exist in the candidate pool.  This
	// is a malformed-input condition: the pool data and the mandatory
	// identifier do not agree.
	ErrMandatoryNotFound ErrorCode = iota

	// ErrMandatoryTooHeavy indicates the mandatory transaction's ancestor
	// chain alone exceeds the weight budget, so no valid block exists.
	// This is an infeasible-constraint condition, distinct from malformed
	// input so callers can tell bad parameters from bad data.
	ErrMandatoryTooHeavy
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrMandatoryNotFound: "ErrMandatoryNotFound",
	ErrMandatoryTooHeavy: "ErrMandatoryTooHeavy",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return "Unknown ErrorCode"
}

// RuleError identifies a rule violation encountered while assembling a block
// template.  The caller can use type assertions along with the ErrorCode
// field to detect the specific failure.
type RuleError struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// ruleError creates an RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}

// IsErrorCode returns whether err is a RuleError with the given code.
func IsErrorCode(err error, c ErrorCode) bool {
	ruleErr, ok := err.(RuleError)
	return ok && ruleErr.ErrorCode == c
}
