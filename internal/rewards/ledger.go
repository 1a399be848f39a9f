// Package rewards implements the reward-token ledger: earning, redeeming
// catalog items and tier progression.
//
// Accounts are plain values. Ledger operations take an account and return a
// new one, leaving the input untouched; persistence and locking belong to
// the caller (see internal/store).
package rewards

import (
	"encoding/json"
	"fmt"
	"iter"
	"math"
	"time"

	"github.com/oklog/ulid/v2"
)

// Transaction is one ledger entry. Delta is positive for earnings and
// negative for redemptions.
type Transaction struct {
	ID           string    `json:"id"`
	Delta        int64     `json:"delta"`
	Reason       string    `json:"reason"`
	ItemID       string    `json:"item_id,omitempty"`
	At           time.Time `json:"at"`
	BalanceAfter int64     `json:"balance_after"`
}

// Account is a user's token balance with its append-only history. Earned is
// the lifetime total of positive deltas and drives tier progression.
type Account struct {
	UserID  string
	Balance int64
	Earned  int64
	history []Transaction
}

// NewAccount returns an empty account for userID.
func NewAccount(userID string) Account {
	return Account{UserID: userID}
}

// History yields transactions in chronological order. The sequence may be
// ranged over any number of times.
func (a Account) History() iter.Seq[Transaction] {
	txs := a.history
	return func(yield func(Transaction) bool) {
		for _, tx := range txs {
			if !yield(tx) {
				return
			}
		}
	}
}

// Len returns the number of transactions.
func (a Account) Len() int { return len(a.history) }

// Last returns the most recent transaction.
func (a Account) Last() (Transaction, bool) {
	if len(a.history) == 0 {
		return Transaction{}, false
	}
	return a.history[len(a.history)-1], true
}

// Verify checks that Balance and Earned equal the history totals and that
// the running balance never went negative.
func (a Account) Verify() error {
	var running, earned int64
	for i, tx := range a.history {
		running += tx.Delta
		if tx.Delta > 0 {
			earned += tx.Delta
		}
		if running < 0 {
			return fmt.Errorf("%w: balance negative after transaction %d", ErrLedgerMismatch, i)
		}
		if tx.BalanceAfter != running {
			return fmt.Errorf("%w: transaction %d records balance %d, want %d",
				ErrLedgerMismatch, i, tx.BalanceAfter, running)
		}
	}
	if running != a.Balance {
		return fmt.Errorf("%w: balance %d, history sums to %d", ErrLedgerMismatch, a.Balance, running)
	}
	if earned != a.Earned {
		return fmt.Errorf("%w: earned %d, history sums to %d", ErrLedgerMismatch, a.Earned, earned)
	}
	return nil
}

// append returns a copy of a with tx recorded. The history backing array is
// never shared with the input.
func (a Account) append(tx Transaction) Account {
	next := a
	next.history = make([]Transaction, len(a.history), len(a.history)+1)
	copy(next.history, a.history)
	next.Balance += tx.Delta
	if tx.Delta > 0 {
		next.Earned += tx.Delta
	}
	tx.BalanceAfter = next.Balance
	next.history = append(next.history, tx)
	return next
}

type accountJSON struct {
	UserID  string        `json:"user_id"`
	Balance int64         `json:"balance"`
	Earned  int64         `json:"earned"`
	History []Transaction `json:"history"`
}

// MarshalJSON implements json.Marshaler.
func (a Account) MarshalJSON() ([]byte, error) {
	h := a.history
	if h == nil {
		h = []Transaction{}
	}
	return json.Marshal(accountJSON{UserID: a.UserID, Balance: a.Balance, Earned: a.Earned, History: h})
}

// UnmarshalJSON implements json.Unmarshaler. The decoded account must pass
// Verify.
func (a *Account) UnmarshalJSON(data []byte) error {
	var raw accountJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded := Account{UserID: raw.UserID, Balance: raw.Balance, Earned: raw.Earned, history: raw.History}
	if err := decoded.Verify(); err != nil {
		return fmt.Errorf("account %s: %w", raw.UserID, err)
	}
	*a = decoded
	return nil
}

// Ledger applies earn and redeem events to accounts.
type Ledger struct {
	// Now stamps transactions. Defaults to time.Now in UTC.
	Now        func() time.Time
	Thresholds Thresholds
}

// NewLedger returns a ledger using the wall clock and default tier thresholds.
func NewLedger() *Ledger {
	return &Ledger{
		Now:        func() time.Time { return time.Now().UTC() },
		Thresholds: DefaultThresholds(),
	}
}

func (l *Ledger) now() time.Time {
	if l.Now == nil {
		return time.Now().UTC()
	}
	return l.Now()
}

// Tier returns the account's tier under the ledger thresholds.
func (l *Ledger) Tier(a Account) Tier {
	if l.Thresholds == (Thresholds{}) {
		return TierFor(a.Earned)
	}
	return l.Thresholds.For(a.Earned)
}

// Earn credits amount tokens. Amounts <= 0 fail with ErrInvalidAmount.
func (l *Ledger) Earn(a Account, amount int64, reason string) (Account, error) {
	if amount <= 0 {
		return a, fmt.Errorf("%w: earn %d", ErrInvalidAmount, amount)
	}
	if a.Balance > math.MaxInt64-amount || a.Earned > math.MaxInt64-amount {
		return a, fmt.Errorf("%w: earn %d overflows balance", ErrInvalidAmount, amount)
	}
	return a.append(Transaction{
		ID:     ulid.Make().String(),
		Delta:  amount,
		Reason: reason,
		At:     l.now(),
	}), nil
}

// Redeem debits item.Cost. When the balance cannot cover the cost the input
// account is returned unchanged together with ErrInsufficientFunds.
func (l *Ledger) Redeem(a Account, item Item) (Account, error) {
	if item.Cost < 0 {
		return a, fmt.Errorf("%w: item %s has negative cost %d", ErrInvalidAmount, item.ID, item.Cost)
	}
	if tier := l.Tier(a); tier < item.MinTier {
		return a, fmt.Errorf("%w: %s requires %s, account is %s", ErrNotEligible, item.ID, item.MinTier, tier)
	}
	if a.Balance < item.Cost {
		return a, fmt.Errorf("%w: balance %d, %s costs %d", ErrInsufficientFunds, a.Balance, item.ID, item.Cost)
	}
	return a.append(Transaction{
		ID:     ulid.Make().String(),
		Delta:  -item.Cost,
		Reason: "redeem " + item.Name,
		ItemID: item.ID,
		At:     l.now(),
	}), nil
}
