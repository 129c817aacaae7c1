package core

import (
	"strings"
	"time"
)

// Kind tags a transaction as income or expense.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

func (k Kind) Valid() bool { return k == KindIncome || k == KindExpense }

type PaymentMethod string

const (
	PaymentCredit PaymentMethod = "credit"
	PaymentDebit  PaymentMethod = "debit"
	PaymentCash   PaymentMethod = "cash"
	PaymentPix    PaymentMethod = "pix"
	PaymentOther  PaymentMethod = "other"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCredit, PaymentDebit, PaymentCash, PaymentPix, PaymentOther:
		return true
	}
	return false
}

// RecurrenceType is how often a recurring transaction repeats.
type RecurrenceType string

const (
	RecurrenceMonthly  RecurrenceType = "monthly"
	RecurrenceBiweekly RecurrenceType = "biweekly"
)

func (r RecurrenceType) Valid() bool {
	return r == RecurrenceMonthly || r == RecurrenceBiweekly
}

// MonthlyFactor is the number of occurrences counted per month when
// projecting. Biweekly counts as exactly two.
func (r RecurrenceType) MonthlyFactor() int64 {
	if r == RecurrenceBiweekly {
		return 2
	}
	return 1
}

// Installment is the position of an expense in a payment plan, e.g. 3 of 10.
type Installment struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

func (i Installment) Validate() error {
	if i.Current < 1 || i.Total < 1 || i.Current > i.Total {
		return ErrInvalidInstallment
	}
	return nil
}

// ExpenseDetails holds the fields that only exist on expenses.
type ExpenseDetails struct {
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Installment   *Installment  `json:"installment,omitempty"`
}

// Transaction is either an income or an expense. ExpenseDetails is non-nil
// exactly when Kind is KindExpense.
type Transaction struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	Kind           Kind           `json:"type"`
	Amount         Money          `json:"amount"`
	Description    string         `json:"description"`
	Category       string         `json:"category"`
	Date           Date           `json:"date"`
	IsRecurring    bool           `json:"isRecurring"`
	RecurrenceType RecurrenceType `json:"recurrenceType,omitempty"`
	*ExpenseDetails
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewIncome builds an income transaction.
func NewIncome(userID string, amount Money, description, category string, date Date) Transaction {
	return Transaction{
		UserID:      userID,
		Kind:        KindIncome,
		Amount:      amount,
		Description: description,
		Category:    category,
		Date:        date,
	}
}

// NewExpense builds an expense transaction paid with method.
func NewExpense(userID string, amount Money, description, category string, date Date, method PaymentMethod) Transaction {
	return Transaction{
		UserID:         userID,
		Kind:           KindExpense,
		Amount:         amount,
		Description:    description,
		Category:       category,
		Date:           date,
		ExpenseDetails: &ExpenseDetails{PaymentMethod: method},
	}
}

// WithRecurrence marks the transaction as recurring.
func (t Transaction) WithRecurrence(r RecurrenceType) Transaction {
	t.IsRecurring = true
	t.RecurrenceType = r
	return t
}

// WithInstallment attaches an installment to an expense. It is a no-op on
// incomes.
func (t Transaction) WithInstallment(current, total int) Transaction {
	if t.ExpenseDetails == nil {
		return t
	}
	details := *t.ExpenseDetails
	details.Installment = &Installment{Current: current, Total: total}
	t.ExpenseDetails = &details
	return t
}

func (t Transaction) IsIncome() bool { return t.Kind == KindIncome }

func (t Transaction) IsExpense() bool { return t.Kind == KindExpense }

// PaymentMethodOrEmpty returns the payment method of an expense, "" for incomes.
func (t Transaction) PaymentMethodOrEmpty() PaymentMethod {
	if t.ExpenseDetails == nil {
		return ""
	}
	return t.PaymentMethod
}

// Clone returns a deep copy.
func (t Transaction) Clone() Transaction {
	if t.ExpenseDetails != nil {
		details := *t.ExpenseDetails
		if details.Installment != nil {
			inst := *details.Installment
			details.Installment = &inst
		}
		t.ExpenseDetails = &details
	}
	return t
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUserID
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if t.Amount.IsNegative() || t.Amount.Cents > MaxAmountCents {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if t.IsRecurring != t.RecurrenceType.Valid() {
		return ErrInvalidRecurrence
	}
	if !t.IsRecurring && t.RecurrenceType != "" {
		return ErrInvalidRecurrence
	}

	switch t.Kind {
	case KindIncome:
		if t.ExpenseDetails != nil {
			return ErrIncomeHasExpenseField
		}
	case KindExpense:
		if t.ExpenseDetails == nil || !t.PaymentMethod.Valid() {
			return ErrInvalidPaymentMethod
		}
		if t.Installment != nil {
			if err := t.Installment.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// TransactionPatch is a partial update. Nil fields are left untouched.
type TransactionPatch struct {
	Amount           *Money          `json:"amount,omitempty"`
	Description      *string         `json:"description,omitempty"`
	Category         *string         `json:"category,omitempty"`
	Date             *Date           `json:"date,omitempty"`
	IsRecurring      *bool           `json:"isRecurring,omitempty"`
	RecurrenceType   *RecurrenceType `json:"recurrenceType,omitempty"`
	PaymentMethod    *PaymentMethod  `json:"paymentMethod,omitempty"`
	Installment      *Installment    `json:"installment,omitempty"`
	ClearInstallment bool            `json:"clearInstallment,omitempty"`
}

// Apply returns a validated copy of t with the patch applied. The kind of a
// transaction never changes.
func (p TransactionPatch) Apply(t Transaction) (Transaction, error) {
	out := t.Clone()
	if p.Amount != nil {
		out.Amount = *p.Amount
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	if p.Date != nil {
		out.Date = *p.Date
	}
	if p.IsRecurring != nil {
		out.IsRecurring = *p.IsRecurring
		if !out.IsRecurring {
			out.RecurrenceType = ""
		}
	}
	if p.RecurrenceType != nil {
		out.RecurrenceType = *p.RecurrenceType
	}

	if p.PaymentMethod != nil || p.Installment != nil || p.ClearInstallment {
		if out.ExpenseDetails == nil {
			return Transaction{}, ErrIncomeHasExpenseField
		}
		if p.PaymentMethod != nil {
			out.PaymentMethod = *p.PaymentMethod
		}
		if p.ClearInstallment {
			out.Installment = nil
		}
		if p.Installment != nil {
			inst := *p.Installment
			out.Installment = &inst
		}
	}

	if err := out.Validate(); err != nil {
		return Transaction{}, err
	}
	return out, nil
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p == TransactionPatch{}
}
