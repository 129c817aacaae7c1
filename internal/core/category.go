package core

import "strings"

// Category groups transactions of one kind. The ID is derived from the
// owner and the name so a user cannot hold two categories with the same name
// and kind.
type Category struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Type   Kind   `json:"type"`
	Name   string `json:"name"`
	Color  string `json:"color,omitempty"`
	Icon   string `json:"icon,omitempty"`
	// Budget is the monthly spending limit of an expense category. Nil or
	// zero means the category is not tracked.
	Budget *Money `json:"budget,omitempty"`
}

// CategoryID returns the composite key userID + "_" + name.
func CategoryID(userID, name string) string {
	return userID + "_" + name
}

// NewCategory builds a category with its derived ID.
func NewCategory(userID string, kind Kind, name string) Category {
	name = strings.TrimSpace(name)
	return Category{
		ID:     CategoryID(userID, name),
		UserID: userID,
		Type:   kind,
		Name:   name,
	}
}

// BudgetCents returns the budget, 0 when unset.
func (c Category) BudgetCents() int64 {
	if c.Budget == nil {
		return 0
	}
	return c.Budget.Cents
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return ErrEmptyUserID
	}
	if !c.Type.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", "cannot be empty")
	}
	if len(c.Name) > 60 {
		return NewValidationError("name", "too long (max 60 characters)")
	}
	if c.ID != CategoryID(c.UserID, c.Name) {
		return NewValidationError("id", "must be userId_name")
	}
	if c.Budget != nil && (c.Budget.IsNegative() || c.Type != KindExpense) {
		return ErrInvalidBudget
	}
	return nil
}

// CategoryPatch is a partial category update. Renames are not supported
// because the name is part of the identifier.
type CategoryPatch struct {
	Color  *string `json:"color,omitempty"`
	Icon   *string `json:"icon,omitempty"`
	Budget *Money  `json:"budget,omitempty"`
}

// Apply returns a validated copy of c with the patch applied.
func (p CategoryPatch) Apply(c Category) (Category, error) {
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Icon != nil {
		c.Icon = *p.Icon
	}
	if p.Budget != nil {
		b := *p.Budget
		c.Budget = &b
	}
	if err := c.Validate(); err != nil {
		return Category{}, err
	}
	return c, nil
}

var (
	defaultIncomeCategories  = []string{"Salário", "Investimentos", "Freelance", "Outros"}
	defaultExpenseCategories = []string{"Alimentação", "Moradia", "Transporte", "Lazer", "Saúde", "Educação", "Serviços", "Outros"}
)

// DefaultCategories returns the categories seeded for a newly registered
// user. Expense categories start with a zero budget.
func DefaultCategories(userID string) []Category {
	out := make([]Category, 0, len(defaultIncomeCategories)+len(defaultExpenseCategories))
	for _, name := range defaultIncomeCategories {
		out = append(out, NewCategory(userID, KindIncome, name))
	}
	for _, name := range defaultExpenseCategories {
		c := NewCategory(userID, KindExpense, name)
		zero := Money{}
		c.Budget = &zero
		out = append(out, c)
	}
	return out
}
