package rewards

type constError string

func (e constError) Error() string { return string(e) }

const (
	// ErrInvalidAmount indicates a non-positive earn amount or a negative cost.
	ErrInvalidAmount = constError("amount must be positive")

	// ErrInsufficientFunds indicates a redemption the balance cannot cover.
	ErrInsufficientFunds = constError("insufficient funds")

	// ErrNotEligible indicates the account tier is below the item's minimum tier.
	ErrNotEligible = constError("account tier not eligible for item")

	// ErrLedgerMismatch indicates a history whose deltas disagree with the balance.
	ErrLedgerMismatch = constError("ledger history does not match balance")

	// ErrUnknownItem indicates a catalog lookup miss.
	ErrUnknownItem = constError("unknown catalog item")
)
