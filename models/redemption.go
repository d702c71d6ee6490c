// models/redemption.go
package models

// RedemptionOutcome is the closed set of results a redemption attempt can
// have. Every attempt maps to exactly one of these; store failures are
// reported separately, as errors, so callers can retry.
type RedemptionOutcome string

const (
	RedemptionSuccess         RedemptionOutcome = "success"
	RedemptionInvalidFormat   RedemptionOutcome = "invalid_format"
	RedemptionCodeNotFound    RedemptionOutcome = "code_not_found"
	RedemptionExpired         RedemptionOutcome = "expired"
	RedemptionAlreadyRedeemed RedemptionOutcome = "already_redeemed"
)
