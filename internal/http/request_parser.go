package http

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"carteira/internal/core"
)

var (
	errEmptyBody     = core.NewValidationError("body", "request body is required")
	errMalformedBody = core.NewValidationError("body", "must be a JSON object")
)

// bindJSON decodes the request body into dst. Field-level validation errors
// raised while decoding (amounts, dates) are returned as they are.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		switch {
		case errors.Is(err, core.ErrValidation):
			return err
		case errors.Is(err, io.EOF):
			return errEmptyBody
		default:
			return errMalformedBody
		}
	}
	return nil
}

// parseMonthParams reads year and month from the query string. Missing
// values default to the month containing now.
func parseMonthParams(c *gin.Context, now time.Time) (year, month int, err error) {
	year, month = now.Year(), int(now.Month())

	if v := strings.TrimSpace(c.Query("year")); v != "" {
		if year, err = strconv.Atoi(v); err != nil {
			return 0, 0, core.ErrInvalidYear
		}
	}
	if v := strings.TrimSpace(c.Query("month")); v != "" {
		if month, err = strconv.Atoi(v); err != nil {
			return 0, 0, core.ErrInvalidMonth
		}
	}
	return year, month, nil
}

// parseDateQuery returns nil when the parameter is absent.
func parseDateQuery(c *gin.Context, name string) (*core.Date, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return nil, core.NewValidationError(name, "must be a date (YYYY-MM-DD)")
	}
	return &d, nil
}

// parseHorizon reads ?months=. Absent means the default horizon (0).
func parseHorizon(c *gin.Context) (int, error) {
	v := strings.TrimSpace(c.Query("months"))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.ErrInvalidHorizon
	}
	return n, nil
}

// parseKind accepts "income" or "expense". When optional is set, an empty
// value yields "".
func parseKind(v string, optional bool) (core.Kind, error) {
	k := core.Kind(strings.ToLower(strings.TrimSpace(v)))
	if k == "" && optional {
		return "", nil
	}
	if !k.Valid() {
		return "", core.ErrInvalidKind
	}
	return k, nil
}

// transactionRequest is the create payload shared by incomes and expenses.
type transactionRequest struct {
	Amount         *core.Money         `json:"amount"`
	Description    string              `json:"description"`
	Category       string              `json:"category"`
	Date           *core.Date          `json:"date"`
	IsRecurring    bool                `json:"isRecurring"`
	RecurrenceType core.RecurrenceType `json:"recurrenceType"`
	PaymentMethod  core.PaymentMethod  `json:"paymentMethod"`
	Installment    *core.Installment   `json:"installment"`
}

func (r transactionRequest) toTransaction(kind core.Kind) (core.Transaction, error) {
	if r.Amount == nil {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	if r.Date == nil {
		return core.Transaction{}, core.ErrInvalidDate
	}

	var tx core.Transaction
	switch kind {
	case core.KindIncome:
		if r.PaymentMethod != "" || r.Installment != nil {
			return core.Transaction{}, core.ErrIncomeHasExpenseField
		}
		tx = core.NewIncome("", *r.Amount, r.Description, r.Category, *r.Date)
	default:
		tx = core.NewExpense("", *r.Amount, r.Description, r.Category, *r.Date, r.PaymentMethod)
		if r.Installment != nil {
			tx = tx.WithInstallment(r.Installment.Current, r.Installment.Total)
		}
	}
	tx.IsRecurring = r.IsRecurring
	tx.RecurrenceType = r.RecurrenceType
	return tx, nil
}

type registerRequest struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}
