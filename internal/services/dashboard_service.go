package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"carteira/internal/analytics"
	"carteira/internal/cache"
	"carteira/internal/core"
	applog "carteira/internal/log"
	"carteira/internal/ports"
)

// DashboardStore is the read side the dashboard needs.
type DashboardStore interface {
	ports.TransactionReader
	ListCategories(ctx context.Context, userID string, kind core.Kind) ([]core.Category, error)
}

// DashboardService computes summaries, monthly reports and projections.
// Summaries and reports are cached per user and month; the cache is
// optional.
type DashboardService struct {
	store     DashboardStore
	summaries cache.Cache[core.FinancialSummary]
	reports   cache.Cache[core.MonthlyReport]
	gens      cache.Generations
	logger    *applog.Logger
	now       Clock
}

type DashboardOption func(*DashboardService)

// WithSummaryCache caches summaries of the current month.
func WithSummaryCache(c cache.Cache[core.FinancialSummary]) DashboardOption {
	return func(s *DashboardService) { s.summaries = c }
}

// WithReportCache caches monthly reports.
func WithReportCache(c cache.Cache[core.MonthlyReport]) DashboardOption {
	return func(s *DashboardService) { s.reports = c }
}

// WithGenerations shares invalidation counters, e.g. through Redis when
// several replicas cache the same users.
func WithGenerations(g cache.Generations) DashboardOption {
	return func(s *DashboardService) { s.gens = g }
}

// WithDashboardClock overrides time.Now.
func WithDashboardClock(now Clock) DashboardOption {
	return func(s *DashboardService) { s.now = now }
}

func NewDashboardService(store DashboardStore, logger *applog.Logger, opts ...DashboardOption) *DashboardService {
	s := &DashboardService{
		store:  store,
		logger: logger.WithComponent(applog.ComponentDashboard),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.gens == nil {
		s.gens = cache.NewLocalGenerations()
	}
	return s
}

// periodKey is userID:g<generation>:yyyy-mm. The generation is read before
// the data, so a result computed across an invalidation is stored under a
// key that is already outdated.
func periodKey(userID string, gen uint64, year, month int) string {
	return fmt.Sprintf("%s:g%d:%04d-%02d", userID, gen, year, month)
}

// snapshot is one consistent read of a user's data.
type snapshot struct {
	incomes    []core.Transaction
	expenses   []core.Transaction
	categories []core.Category
}

// fetch loads incomes and expenses in period (nil for all time) and,
// when withCategories is set, the expense categories. The reads run
// concurrently; any failure fails the whole fetch.
func (s *DashboardService) fetch(ctx context.Context, userID string, period *core.DateRange, withCategories bool) (snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		txs, err := s.store.ListTransactions(gctx, userID, core.KindIncome, period)
		if err != nil {
			return core.NewRetrievalError("incomes", err)
		}
		snap.incomes = txs
		return nil
	})
	g.Go(func() error {
		txs, err := s.store.ListTransactions(gctx, userID, core.KindExpense, period)
		if err != nil {
			return core.NewRetrievalError("expenses", err)
		}
		snap.expenses = txs
		return nil
	})
	if withCategories {
		g.Go(func() error {
			cats, err := s.store.ListCategories(gctx, userID, core.KindExpense)
			if err != nil {
				return core.NewRetrievalError("categories", err)
			}
			snap.categories = cats
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	return snap, nil
}

// Summary returns the financial summary of the current month.
func (s *DashboardService) Summary(ctx context.Context, user core.CurrentUser) (core.FinancialSummary, error) {
	now := s.now()
	gen := s.gens.Current(ctx, user.ID)
	key := periodKey(user.ID, gen, now.Year(), int(now.Month()))
	if s.summaries != nil {
		if cached, ok := s.summaries.Get(ctx, key); ok {
			return cached, nil
		}
	}

	window := analytics.CurrentMonthWindow(now)
	snap, err := s.fetch(ctx, user.ID, &window, true)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load dashboard data",
			applog.FieldUserID, user.ID, applog.FieldOperation, applog.OpSummary, applog.FieldError, err)
		return core.FinancialSummary{}, err
	}

	summary := analytics.Summarize(analytics.SummaryInput{
		Now:        now,
		Incomes:    snap.incomes,
		Expenses:   snap.expenses,
		Categories: snap.categories,
	})
	if s.summaries != nil && s.unchanged(ctx, user.ID, gen) {
		s.summaries.Set(ctx, key, summary)
	}
	return summary, nil
}

// MonthlyReport aggregates month (1-12) of year.
func (s *DashboardService) MonthlyReport(ctx context.Context, user core.CurrentUser, year, month int) (core.MonthlyReport, error) {
	window, err := analytics.MonthWindow(year, month)
	if err != nil {
		return core.MonthlyReport{}, err
	}

	gen := s.gens.Current(ctx, user.ID)
	key := periodKey(user.ID, gen, year, month)
	if s.reports != nil {
		if cached, ok := s.reports.Get(ctx, key); ok {
			return cached, nil
		}
	}

	snap, err := s.fetch(ctx, user.ID, &window, false)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load report data",
			applog.FieldUserID, user.ID, applog.FieldYear, year, applog.FieldMonth, month, applog.FieldError, err)
		return core.MonthlyReport{}, err
	}

	report, err := analytics.BuildMonthlyReport(year, month, snap.incomes, snap.expenses)
	if err != nil {
		return core.MonthlyReport{}, err
	}
	if s.reports != nil && s.unchanged(ctx, user.ID, gen) {
		s.reports.Set(ctx, key, report)
	}
	return report, nil
}

// unchanged reports whether no invalidation happened since gen was read.
func (s *DashboardService) unchanged(ctx context.Context, userID string, gen uint64) bool {
	return s.gens.Current(ctx, userID) == gen
}

// Projection estimates the next months; months == 0 selects the default
// horizon.
func (s *DashboardService) Projection(ctx context.Context, user core.CurrentUser, months int) ([]core.Projection, error) {
	if months == 0 {
		months = core.DefaultProjectionHorizon
	}
	if months < 1 || months > core.MaxProjectionHorizon {
		return nil, core.ErrInvalidHorizon
	}

	snap, err := s.fetch(ctx, user.ID, nil, false)
	if err != nil {
		return nil, err
	}
	return analytics.Project(analytics.ProjectionInput{
		Now:      s.now(),
		Horizon:  months,
		Incomes:  snap.incomes,
		Expenses: snap.expenses,
	})
}

// Now is the clock the dashboard computes "current month" with.
func (s *DashboardService) Now() time.Time { return s.now() }

// InvalidateUser implements Invalidator. Bumping the generation retires every
// key of the user, including ones a concurrent read is about to write; the
// prefix delete only frees the space early.
func (s *DashboardService) InvalidateUser(ctx context.Context, userID string) {
	s.gens.Bump(ctx, userID)
	prefix := userID + ":"
	if s.summaries != nil {
		s.summaries.DeletePrefix(ctx, prefix)
	}
	if s.reports != nil {
		s.reports.DeletePrefix(ctx, prefix)
	}
}
