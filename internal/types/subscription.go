package types

import (
	"time"
)

// SubscriptionStatus is the canonical local status for a billing subscription.
// The value set mirrors the provider's status vocabulary so webhook payloads
// map 1:1 where possible.
type SubscriptionStatus string

const (
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusPaused            SubscriptionStatus = "paused"
)

var knownSubscriptionStatuses = map[SubscriptionStatus]struct{}{
	SubscriptionStatusActive:            {},
	SubscriptionStatusCanceled:          {},
	SubscriptionStatusIncomplete:        {},
	SubscriptionStatusIncompleteExpired: {},
	SubscriptionStatusPastDue:           {},
	SubscriptionStatusTrialing:          {},
	SubscriptionStatusUnpaid:            {},
	SubscriptionStatusPaused:            {},
}

// ParseSubscriptionStatus maps a provider status string to the local enum.
// Unrecognized values degrade to incomplete rather than failing the sync: a
// partially-correct record is preferred over a crashed reconciliation while
// the provider retries.
func ParseSubscriptionStatus(s string) SubscriptionStatus {
	status := SubscriptionStatus(s)
	if _, ok := knownSubscriptionStatuses[status]; ok {
		return status
	}
	return SubscriptionStatusIncomplete
}

// IsEntitled reports whether the status grants access to paid features.
func (s SubscriptionStatus) IsEntitled() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing
}

// CancelAtPeriodEndWindow is the tolerance used to treat a scheduled
// cancellation timestamp as equivalent to the provider's native
// cancel_at_period_end flag. Some billing modes express end-of-period
// cancellation only via cancel_at.
const CancelAtPeriodEndWindow = 24 * time.Hour

// DeriveCancelAtPeriodEnd computes the stored cancel_at_period_end flag.
// True when the provider's native flag is set, or when a cancellation
// timestamp falls within 24 hours of the current period end.
func DeriveCancelAtPeriodEnd(nativeFlag bool, cancelAt *time.Time, periodEnd time.Time) bool {
	if nativeFlag {
		return true
	}
	if cancelAt == nil || periodEnd.IsZero() {
		return false
	}
	diff := cancelAt.Sub(periodEnd)
	if diff < 0 {
		diff = -diff
	}
	return diff <= CancelAtPeriodEndWindow
}
