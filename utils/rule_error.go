package utils

import "github.com/pkg/errors"

// These constants are used to identify why a transaction was rejected.
var (
	// ErrMissingTxOut indicates an input references an output that either
	// never existed or has already been spent.
	ErrMissingTxOut = newRuleError("ErrMissingTxOut")

	// ErrInvalidSignature indicates an input's signature does not verify
	// against the owner of the output it claims.
	ErrInvalidSignature = newRuleError("ErrInvalidSignature")

	// ErrDoubleSpendInTx indicates a transaction claims the same output
	// more than once.
	ErrDoubleSpendInTx = newRuleError("ErrDoubleSpendInTx")

	// ErrBadTxOutValue indicates a transaction declares a negative output value.
	ErrBadTxOutValue = newRuleError("ErrBadTxOutValue")

	// ErrSpendTooHigh indicates a transaction declares more output value
	// than its inputs carry.
	ErrSpendTooHigh = newRuleError("ErrSpendTooHigh")

	// ErrDuplicateTx indicates a transaction with the same hash was already
	// accepted in the same batch.
	ErrDuplicateTx = newRuleError("ErrDuplicateTx")
)

// RuleError identifies a rule violation. Rejections are normal outcomes of
// validation, so callers use errors.Is against the sentinels above rather than
// treating a RuleError as a failure of the node.
type RuleError struct {
	message string
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.message
}

func newRuleError(message string) RuleError {
	return RuleError{message: message}
}

// RejectReason returns the name of the rule err violates, or "ErrUnknown" when err
// is not a rule violation.
func RejectReason(err error) string {
	var ruleErr RuleError
	if errors.As(err, &ruleErr) {
		return ruleErr.message
	}
	return "ErrUnknown"
}

// IsRuleError reports whether err is a rule violation.
func IsRuleError(err error) bool {
	var ruleErr RuleError
	return errors.As(err, &ruleErr)
}
