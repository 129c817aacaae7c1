package http

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"carteira/internal/export"
)

func (s *Server) handleCreateBackup(c *gin.Context) {
	info, err := s.svc.Backups.Create(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, info)
}

func (s *Server) handleListBackups(c *gin.Context) {
	backups, err := s.svc.Backups.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, backups)
}

func (s *Server) handleGetBackup(c *gin.Context) {
	backup, err := s.svc.Backups.Get(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, backup)
}

// handleExportBackup downloads a fresh snapshot without storing it.
func (s *Server) handleExportBackup(c *gin.Context) {
	backup, err := s.svc.Backups.Snapshot(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteBackupJSON(&buf, backup); err != nil {
		abortWithError(c, err)
		return
	}
	attachment(c, "application/json", backup.FileName(), buf.Bytes())
}
