package http

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"carteira/internal/export"
)

func (s *Server) handleSummary(c *gin.Context) {
	summary, err := s.svc.Dashboard.Summary(c.Request.Context(), currentUser(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleMonthlyReport(c *gin.Context) {
	year, month, err := parseMonthParams(c, s.svc.Dashboard.Now())
	if err != nil {
		abortWithError(c, err)
		return
	}
	report, err := s.svc.Dashboard.MonthlyReport(c.Request.Context(), currentUser(c), year, month)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleMonthlyReportCSV(c *gin.Context) {
	year, month, err := parseMonthParams(c, s.svc.Dashboard.Now())
	if err != nil {
		abortWithError(c, err)
		return
	}
	report, err := s.svc.Dashboard.MonthlyReport(c.Request.Context(), currentUser(c), year, month)
	if err != nil {
		abortWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteReportCSV(&buf, report); err != nil {
		abortWithError(c, err)
		return
	}
	attachment(c, "text/csv; charset=utf-8", export.ReportFileName(year, month), buf.Bytes())
}

func (s *Server) handleProjection(c *gin.Context) {
	months, err := parseHorizon(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	projection, err := s.svc.Dashboard.Projection(c.Request.Context(), currentUser(c), months)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, projection)
}
