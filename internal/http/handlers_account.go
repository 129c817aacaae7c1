package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"carteira/internal/core"
	applog "carteira/internal/log"
	"carteira/internal/services"
)

const currentUserKey = "carteira.currentUser"

// requireUser resolves the forwarded identity and stores the CurrentUser on
// the gin context. Unknown identities are rejected with 401.
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.svc.Accounts.Resolve(c.Request.Context(), strings.TrimSpace(c.GetHeader(HeaderUserID)))
		if err != nil {
			abortWithError(c, err)
			return
		}
		ctx := c.Request.Context()
		reqLogger := applog.FromContext(ctx).With(applog.FieldUserID, user.ID)
		c.Request = c.Request.WithContext(applog.WithContext(ctx, reqLogger))
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// currentUser returns the user stored by requireUser.
func currentUser(c *gin.Context) core.CurrentUser {
	if v, ok := c.Get(currentUserKey); ok {
		if u, ok := v.(core.CurrentUser); ok {
			return u
		}
	}
	return core.CurrentUser{}
}

// handleRegister creates the account of the forwarded identity. The header
// wins over a uid in the body.
func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		abortWithError(c, err)
		return
	}
	id := strings.TrimSpace(c.GetHeader(HeaderUserID))
	if id == "" {
		id = req.UID
	}

	user, err := s.svc.Accounts.Register(c.Request.Context(), core.User{
		ID:          id,
		Email:       req.Email,
		DisplayName: strings.TrimSpace(req.DisplayName),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) handleMe(c *gin.Context) {
	user, err := s.svc.Accounts.Me(c.Request.Context(), currentUser(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleGetSettings(c *gin.Context) {
	settings, err := s.svc.Accounts.Settings(c.Request.Context(), currentUser(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(c *gin.Context) {
	var patch core.SettingsPatch
	if err := bindJSON(c, &patch); err != nil {
		abortWithError(c, err)
		return
	}
	settings, err := s.svc.Accounts.UpdateSettings(c.Request.Context(), currentUser(c), patch)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) handleListCategories(c *gin.Context) {
	kind, err := parseKind(c.Query("type"), true)
	if err != nil {
		abortWithError(c, err)
		return
	}
	categories, err := s.svc.Categories.List(c.Request.Context(), currentUser(c), kind)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(c *gin.Context) {
	var in services.NewCategoryInput
	if err := bindJSON(c, &in); err != nil {
		abortWithError(c, err)
		return
	}
	created, err := s.svc.Categories.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdateCategory(c *gin.Context) {
	kind, err := parseKind(c.Param("type"), false)
	if err != nil {
		abortWithError(c, err)
		return
	}
	var patch core.CategoryPatch
	if err := bindJSON(c, &patch); err != nil {
		abortWithError(c, err)
		return
	}
	updated, err := s.svc.Categories.Update(c.Request.Context(), currentUser(c), kind, c.Param("id"), patch)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteCategory(c *gin.Context) {
	kind, err := parseKind(c.Param("type"), false)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := s.svc.Categories.Delete(c.Request.Context(), currentUser(c), kind, c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
