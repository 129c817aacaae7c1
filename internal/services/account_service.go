package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"carteira/internal/core"
	applog "carteira/internal/log"
	"carteira/internal/ports"
)

// AccountStore is the persistence the account service needs.
type AccountStore interface {
	ports.UserStore
	ports.SettingsStore
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
}

// AccountService registers users, resolves the caller of a request and
// manages settings.
type AccountService struct {
	store  AccountStore
	logger *applog.Logger
	now    Clock
}

func NewAccountService(store AccountStore, logger *applog.Logger) *AccountService {
	return &AccountService{
		store:  store,
		logger: logger.WithComponent(applog.ComponentAccount),
		now:    time.Now,
	}
}

// Register creates the account of an identity-provider user and seeds the
// default categories and settings. Registering an existing id is a
// conflict.
func (s *AccountService) Register(ctx context.Context, u core.User) (core.User, error) {
	u.ID = strings.TrimSpace(u.ID)
	u.Email = strings.TrimSpace(u.Email)
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now().UTC()
	}

	created, err := s.store.CreateUser(ctx, u)
	if err != nil {
		return core.User{}, storeErr("create user", err)
	}

	for _, c := range core.DefaultCategories(created.ID) {
		if _, err := s.store.CreateCategory(ctx, c); err != nil && !errors.Is(err, core.ErrConflict) {
			return core.User{}, storeErr("seed categories", err)
		}
	}
	if err := s.store.SaveSettings(ctx, core.DefaultSettings(created.ID)); err != nil {
		return core.User{}, storeErr("seed settings", err)
	}

	s.logger.InfoContext(ctx, "User registered", applog.FieldUserID, created.ID)
	return created, nil
}

// Resolve maps an upstream identity to the CurrentUser of a request.
// Unknown or empty ids are unauthenticated.
func (s *AccountService) Resolve(ctx context.Context, userID string) (core.CurrentUser, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return core.CurrentUser{}, core.ErrUnauthenticated
	}
	u, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return core.CurrentUser{}, core.ErrUnauthenticated
	}
	if err != nil {
		return core.CurrentUser{}, storeErr("user", err)
	}
	return core.CurrentUser{ID: u.ID, Email: u.Email}, nil
}

func (s *AccountService) Me(ctx context.Context, user core.CurrentUser) (core.User, error) {
	u, err := s.store.GetUser(ctx, user.ID)
	return u, storeErr("user", err)
}

// Users lists every registered account.
func (s *AccountService) Users(ctx context.Context) ([]core.User, error) {
	users, err := s.store.ListUsers(ctx)
	return users, storeErr("users", err)
}

// Settings returns the user's settings, falling back to the defaults when
// none were saved.
func (s *AccountService) Settings(ctx context.Context, user core.CurrentUser) (core.Settings, error) {
	st, err := s.store.GetSettings(ctx, user.ID)
	if errors.Is(err, core.ErrNotFound) {
		return core.DefaultSettings(user.ID), nil
	}
	if err != nil {
		return core.Settings{}, storeErr("settings", err)
	}
	return st, nil
}

func (s *AccountService) UpdateSettings(ctx context.Context, user core.CurrentUser, patch core.SettingsPatch) (core.Settings, error) {
	current, err := s.Settings(ctx, user)
	if err != nil {
		return core.Settings{}, err
	}
	next, err := patch.Apply(current)
	if err != nil {
		return core.Settings{}, err
	}
	if err := s.store.SaveSettings(ctx, next); err != nil {
		return core.Settings{}, storeErr("save settings", err)
	}
	s.logger.InfoContext(ctx, "Settings updated",
		applog.FieldUserID, user.ID, "theme", next.Theme, "backup_frequency", next.BackupFrequency)
	return next, nil
}
