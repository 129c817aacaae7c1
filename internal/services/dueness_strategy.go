// This file implements the Strategy Pattern for backup dueness checking.
// Each backup frequency has its own strategy that decides whether a user's
// next automatic backup is due.

package services

import (
	"fmt"
	"time"

	"carteira/internal/core"
)

// DuenessChecker is the strategy interface for checking if a backup is due.
type DuenessChecker interface {
	// IsDue returns true if a backup should run given the time of the last
	// one (zero when there was none) and the current time.
	IsDue(lastBackup, now time.Time) bool
}

// DailyChecker implements DuenessChecker for daily backups.
type DailyChecker struct{}

// IsDue returns true if the last backup was before today.
func (DailyChecker) IsDue(lastBackup, now time.Time) bool {
	if lastBackup.IsZero() {
		return true
	}
	return lastBackup.Format("2006-01-02") != now.Format("2006-01-02")
}

// WeeklyChecker implements DuenessChecker for weekly backups.
type WeeklyChecker struct{}

// IsDue returns true if 7 or more days have passed since the last backup.
func (WeeklyChecker) IsDue(lastBackup, now time.Time) bool {
	if lastBackup.IsZero() {
		return true
	}
	return now.Sub(lastBackup) >= 7*24*time.Hour
}

// MonthlyChecker implements DuenessChecker for monthly backups.
type MonthlyChecker struct{}

// IsDue returns true in a later month once the day of the last backup is
// reached, clamped to the length of the current month, or once a full month
// has elapsed.
func (MonthlyChecker) IsDue(lastBackup, now time.Time) bool {
	if lastBackup.IsZero() {
		return true
	}

	// Already backed up this month?
	if lastBackup.Year() == now.Year() && lastBackup.Month() == now.Month() {
		return false
	}
	if lastBackup.After(now) {
		return false
	}
	// A full month or more has passed
	if !now.Before(lastBackup.AddDate(0, 1, 0)) {
		return true
	}

	targetDay := lastBackup.Day()
	if days := core.DaysIn(now.Year(), int(now.Month())); targetDay > days {
		targetDay = days
	}
	return now.Day() >= targetDay
}

// NeverChecker disables automatic backups.
type NeverChecker struct{}

func (NeverChecker) IsDue(time.Time, time.Time) bool { return false }

// duenessStrategies maps backup frequencies to their corresponding checkers.
var duenessStrategies = map[core.BackupFrequency]DuenessChecker{
	core.BackupDaily:   DailyChecker{},
	core.BackupWeekly:  WeeklyChecker{},
	core.BackupMonthly: MonthlyChecker{},
	core.BackupNever:   NeverChecker{},
}

// GetDuenessChecker returns the appropriate dueness checker for a frequency.
func GetDuenessChecker(frequency core.BackupFrequency) (DuenessChecker, error) {
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown backup frequency: %s", frequency)
	}
	return checker, nil
}
