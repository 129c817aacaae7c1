package services

import (
	"context"
	"strings"

	"carteira/internal/core"
	applog "carteira/internal/log"
	"carteira/internal/ports"
)

// CategoryService manages income and expense categories. Transactions refer
// to categories by name only, so deleting a category leaves them untouched.
type CategoryService struct {
	store       ports.CategoryStore
	invalidator Invalidator
	logger      *applog.Logger
}

func NewCategoryService(store ports.CategoryStore, invalidator Invalidator, logger *applog.Logger) *CategoryService {
	return &CategoryService{
		store:       store,
		invalidator: invalidator,
		logger:      logger.WithComponent(applog.ComponentCategory),
	}
}

// List returns the categories of kind, or both collections when kind is
// empty (income first).
func (s *CategoryService) List(ctx context.Context, user core.CurrentUser, kind core.Kind) ([]core.Category, error) {
	if kind != "" {
		if !kind.Valid() {
			return nil, core.ErrInvalidKind
		}
		cats, err := s.store.ListCategories(ctx, user.ID, kind)
		return cats, storeErr("categories", err)
	}

	incomes, err := s.store.ListCategories(ctx, user.ID, core.KindIncome)
	if err != nil {
		return nil, storeErr("categories", err)
	}
	expenses, err := s.store.ListCategories(ctx, user.ID, core.KindExpense)
	if err != nil {
		return nil, storeErr("categories", err)
	}
	return append(incomes, expenses...), nil
}

// NewCategoryInput is the payload of Create.
type NewCategoryInput struct {
	Type   core.Kind   `json:"type"`
	Name   string      `json:"name"`
	Color  string      `json:"color"`
	Icon   string      `json:"icon"`
	Budget *core.Money `json:"budget,omitempty"`
}

// Create adds a category; the id derives from the name, so a duplicate name
// within the same type is a conflict.
func (s *CategoryService) Create(ctx context.Context, user core.CurrentUser, in NewCategoryInput) (core.Category, error) {
	if !in.Type.Valid() {
		return core.Category{}, core.ErrInvalidKind
	}
	c := core.NewCategory(user.ID, in.Type, strings.TrimSpace(in.Name))
	c.Color = in.Color
	c.Icon = in.Icon
	c.Budget = in.Budget
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, storeErr("create category", err)
	}
	s.logger.InfoContext(ctx, "Category created",
		applog.FieldUserID, user.ID, applog.FieldKind, in.Type, applog.FieldCategory, created.Name)
	s.invalidate(ctx, user.ID)
	return created, nil
}

// Update changes the presentation fields or the budget of a category.
func (s *CategoryService) Update(ctx context.Context, user core.CurrentUser, kind core.Kind, id string, patch core.CategoryPatch) (core.Category, error) {
	if !kind.Valid() {
		return core.Category{}, core.ErrInvalidKind
	}
	current, err := s.store.GetCategory(ctx, user.ID, kind, id)
	if err != nil {
		return core.Category{}, storeErr("category", err)
	}
	next, err := patch.Apply(current)
	if err != nil {
		return core.Category{}, err
	}
	updated, err := s.store.UpdateCategory(ctx, next)
	if err != nil {
		return core.Category{}, storeErr("update category", err)
	}
	s.invalidate(ctx, user.ID)
	return updated, nil
}

func (s *CategoryService) Delete(ctx context.Context, user core.CurrentUser, kind core.Kind, id string) error {
	if !kind.Valid() {
		return core.ErrInvalidKind
	}
	if err := s.store.DeleteCategory(ctx, user.ID, kind, id); err != nil {
		return storeErr("delete category", err)
	}
	s.logger.InfoContext(ctx, "Category deleted",
		applog.FieldUserID, user.ID, applog.FieldKind, kind, "category_id", id)
	s.invalidate(ctx, user.ID)
	return nil
}

func (s *CategoryService) invalidate(ctx context.Context, userID string) {
	if s.invalidator != nil {
		s.invalidator.InvalidateUser(ctx, userID)
	}
}
