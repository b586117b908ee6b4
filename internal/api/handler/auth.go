package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smartcampus/backend/internal/complaint"
	"smartcampus/backend/internal/models"
)

const (
	callerKey = "caller"
	userKey   = "user"
)

// bearerToken reads the Authorization header. Browsers cannot set headers on
// websocket upgrades, so the token query parameter is accepted as well.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return c.Query("token")
}

// Authenticate verifies the bearer token, loads the caller's profile
// (creating it on first sign-in) and stores the caller in the context.
func (h *Handler) Authenticate(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		h.writeError(c, complaint.Unauthenticated(nil))
		return
	}

	caller, err := h.Verifier.Verify(c.Request.Context(), token)
	if err != nil {
		h.Logger.Debug("Token rejected", zap.Error(err))
		h.writeError(c, complaint.Unauthenticated(err))
		return
	}

	user, err := h.Service.Identify(c.Request.Context(), caller)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Set(callerKey, caller)
	c.Set(userKey, user)
	c.Next()
}

func callerFrom(c *gin.Context) *models.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(*models.Caller); ok {
			return caller
		}
	}
	return nil
}

// Me returns the caller's stored profile, including the role.
func (h *Handler) Me(c *gin.Context) {
	user, _ := c.Get(userKey)
	c.JSON(http.StatusOK, user)
}
