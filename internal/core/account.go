package core

import (
	"strings"
	"time"
)

// User is an account known to the system. Authentication happens upstream;
// the ID is the identity provider's subject.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return ErrEmptyUserID
	}
	if !strings.Contains(u.Email, "@") {
		return NewValidationError("email", "must be an email address")
	}
	return nil
}

// CurrentUser is the authenticated caller of a request. It is resolved by
// the transport layer and passed explicitly to every service call.
type CurrentUser struct {
	ID    string
	Email string
}

type ThemePreference string

const (
	ThemeLight  ThemePreference = "light"
	ThemeDark   ThemePreference = "dark"
	ThemeSystem ThemePreference = "system"
)

func (t ThemePreference) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

type BackupFrequency string

const (
	BackupDaily   BackupFrequency = "daily"
	BackupWeekly  BackupFrequency = "weekly"
	BackupMonthly BackupFrequency = "monthly"
	BackupNever   BackupFrequency = "never"
)

func (b BackupFrequency) Valid() bool {
	switch b {
	case BackupDaily, BackupWeekly, BackupMonthly, BackupNever:
		return true
	}
	return false
}

// Settings are per-user preferences.
type Settings struct {
	UserID          string          `json:"userId"`
	Theme           ThemePreference `json:"theme"`
	Currency        string          `json:"currency"`
	Language        string          `json:"language"`
	Notifications   bool            `json:"notifications"`
	BackupFrequency BackupFrequency `json:"backupFrequency"`
	LastBackupDate  *time.Time      `json:"lastBackupDate,omitempty"`
}

// DefaultSettings are applied at registration.
func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:          userID,
		Theme:           ThemeSystem,
		Currency:        "BRL",
		Language:        "pt-BR",
		Notifications:   true,
		BackupFrequency: BackupMonthly,
	}
}

func (s Settings) Validate() error {
	if strings.TrimSpace(s.UserID) == "" {
		return ErrEmptyUserID
	}
	if !s.Theme.Valid() {
		return ErrInvalidTheme
	}
	if len(s.Currency) != 3 || strings.ToUpper(s.Currency) != s.Currency {
		return NewValidationError("currency", "must be an ISO 4217 code")
	}
	if strings.TrimSpace(s.Language) == "" {
		return NewValidationError("language", "cannot be empty")
	}
	if !s.BackupFrequency.Valid() {
		return ErrInvalidBackupFreq
	}
	return nil
}

// SettingsPatch is a partial settings update.
type SettingsPatch struct {
	Theme           *ThemePreference `json:"theme,omitempty"`
	Currency        *string          `json:"currency,omitempty"`
	Language        *string          `json:"language,omitempty"`
	Notifications   *bool            `json:"notifications,omitempty"`
	BackupFrequency *BackupFrequency `json:"backupFrequency,omitempty"`
}

func (p SettingsPatch) Apply(s Settings) (Settings, error) {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.Currency != nil {
		s.Currency = *p.Currency
	}
	if p.Language != nil {
		s.Language = *p.Language
	}
	if p.Notifications != nil {
		s.Notifications = *p.Notifications
	}
	if p.BackupFrequency != nil {
		s.BackupFrequency = *p.BackupFrequency
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}
