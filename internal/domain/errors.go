package domain

import "fmt"

// The order engine's failure taxonomy. Every error raised between the start
// of an order transaction and its commit is one of these; handlers map them
// to HTTP statuses with errors.As.

// ValidationError rejects a malformed request before any transaction starts.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an unresolvable item, coupon, zone or order.
type NotFoundError struct {
	Kind string // product | material | variant | coupon | zone | order | purchase_order
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// InsufficientStockError names the exact counter that could not cover the
// requested quantity.
type InsufficientStockError struct {
	ItemID    string
	ColorID   string
	SizeName  string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	if e.ColorID != "" {
		return fmt.Sprintf("insufficient stock for %s (color %s, size %s): requested %d, available %d",
			e.ItemID, e.ColorID, e.SizeName, e.Requested, e.Available)
	}
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ItemID, e.Requested, e.Available)
}

// InvalidItemError reports a business-rule violation on a single cart line,
// e.g. a raw material carrying a color selection.
type InvalidItemError struct {
	ItemID string
	Field  string
	Reason string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("invalid item %s (%s): %s", e.ItemID, e.Field, e.Reason)
}

// CouponRejectedError is returned by the explicit coupon validation path and
// by a lost redeem race at commit time. Checkout itself never surfaces it; an
// ineligible coupon is silently dropped there.
type CouponRejectedError struct {
	Code   string
	Reason string
}

func (e *CouponRejectedError) Error() string {
	return fmt.Sprintf("coupon %q rejected: %s", e.Code, e.Reason)
}

// TransactionFailure wraps an underlying storage error during persist or
// stock mutation. It is the only possibly-transient kind in the taxonomy.
type TransactionFailure struct {
	Op  string
	Err error
}

func (e *TransactionFailure) Error() string {
	return fmt.Sprintf("transaction failed during %s: %v", e.Op, e.Err)
}

func (e *TransactionFailure) Unwrap() error { return e.Err }
