package http

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"carteira/internal/core"
	"carteira/internal/export"
	"carteira/internal/services"
)

// transactionHandlers serves one collection, /api/incomes or /api/expenses.
type transactionHandlers struct {
	list, create, get, update, remove gin.HandlerFunc
}

func (s *Server) transactionHandlers(kind core.Kind) transactionHandlers {
	return transactionHandlers{
		list: func(c *gin.Context) {
			filter, err := parseListFilter(c)
			if err != nil {
				abortWithError(c, err)
				return
			}
			if kind == core.KindIncome && filter.Category != "" {
				// Incomes are only filtered by date.
				filter.Category = ""
			}
			txs, err := s.svc.Transactions.List(c.Request.Context(), currentUser(c), kind, filter)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, txs)
		},

		create: func(c *gin.Context) {
			var req transactionRequest
			if err := bindJSON(c, &req); err != nil {
				abortWithError(c, err)
				return
			}
			tx, err := req.toTransaction(kind)
			if err != nil {
				abortWithError(c, err)
				return
			}
			created, err := s.svc.Transactions.Create(c.Request.Context(), currentUser(c), tx)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.Header("Location", c.Request.URL.Path+"/"+created.ID)
			c.JSON(http.StatusCreated, created)
		},

		get: func(c *gin.Context) {
			tx, err := s.svc.Transactions.Get(c.Request.Context(), currentUser(c), kind, c.Param("id"))
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, tx)
		},

		update: func(c *gin.Context) {
			var patch core.TransactionPatch
			if err := bindJSON(c, &patch); err != nil {
				abortWithError(c, err)
				return
			}
			if patch.IsEmpty() {
				abortWithError(c, core.NewValidationError("body", "no fields to update"))
				return
			}
			updated, err := s.svc.Transactions.Update(c.Request.Context(), currentUser(c), kind, c.Param("id"), patch)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, updated)
		},

		remove: func(c *gin.Context) {
			if err := s.svc.Transactions.Delete(c.Request.Context(), currentUser(c), kind, c.Param("id")); err != nil {
				abortWithError(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		},
	}
}

func parseListFilter(c *gin.Context) (services.ListFilter, error) {
	from, err := parseDateQuery(c, "from")
	if err != nil {
		return services.ListFilter{}, err
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		return services.ListFilter{}, err
	}
	return services.ListFilter{
		From:     from,
		To:       to,
		Category: strings.TrimSpace(c.Query("category")),
	}, nil
}

// handleTransactionsCSV downloads incomes and expenses in one CSV file,
// honoring the same from/to filters as the list endpoints.
func (s *Server) handleTransactionsCSV(c *gin.Context) {
	filter, err := parseListFilter(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	filter.Category = ""

	ctx, user := c.Request.Context(), currentUser(c)
	var incomes, expenses []core.Transaction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		incomes, err = s.svc.Transactions.List(gctx, user, core.KindIncome, filter)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.svc.Transactions.List(gctx, user, core.KindExpense, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		abortWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteTransactionsCSV(&buf, append(incomes, expenses...)); err != nil {
		abortWithError(c, err)
		return
	}
	attachment(c, "text/csv; charset=utf-8", "transactions.csv", buf.Bytes())
}
