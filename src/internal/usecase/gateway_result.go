package usecase

// Gateway result codes with fixed meaning. Anything not listed here is
// treated as inconclusive and leaves a pending deposit retryable.
const (
	gatewayResultSuccess           = 0
	gatewayResultInsufficientFunds = 1
	gatewayResultCancelledByUser   = 1032
	gatewayResultTimeout           = 1037
	gatewayResultWrongPIN          = 2001
)

// isDefinitiveFailure reports whether the code may flip a pending deposit to
// FAILED. Timeouts and unknown codes never qualify.
func isDefinitiveFailure(code int) bool {
	switch code {
	case gatewayResultInsufficientFunds, gatewayResultCancelledByUser, gatewayResultWrongPIN:
		return true
	}
	return false
}

// isRescuableFailure reports whether a FAILED record holding this result code
// may reopen when an authoritative success arrives inside the rescue window.
// Definitive failures are final; only transient marks qualify.
func isRescuableFailure(code int) bool {
	return code != gatewayResultSuccess && !isDefinitiveFailure(code)
}

// sanitizeFailure maps raw gateway error text to a stable user-facing string.
func sanitizeFailure(code int) string {
	switch code {
	case gatewayResultInsufficientFunds:
		return "insufficient funds on the payment account"
	case gatewayResultCancelledByUser:
		return "payment request was cancelled"
	case gatewayResultWrongPIN:
		return "payment authorization failed"
	case gatewayResultTimeout:
		return "payment request timed out"
	default:
		return "payment could not be completed"
	}
}
