// Package handler exposes the complaint gateway, the complaint workflow and
// realtime subscriptions over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smartcampus/backend/internal/complaint"
	"smartcampus/backend/internal/identity"
	"smartcampus/backend/internal/localization"
	"smartcampus/backend/internal/realtime"
)

// Handler містить залежності HTTP-шару
type Handler struct {
	Gateway  *complaint.Gateway
	Service  *complaint.Service
	Hub      *realtime.Hub
	Verifier identity.Verifier
	Messages complaint.Messages
	Logger   *zap.Logger

	// AllowedOrigins limits websocket upgrades; "*" allows any origin.
	AllowedOrigins []string
}

var errorStatus = map[complaint.Kind]int{
	complaint.KindUnauthenticated:  http.StatusUnauthorized,
	complaint.KindInvalidArgument:  http.StatusBadRequest,
	complaint.KindPermissionDenied: http.StatusForbidden,
	complaint.KindNotFound:         http.StatusNotFound,
	complaint.KindInternal:         http.StatusInternalServerError,
}

func language(c *gin.Context) string {
	return localization.PreferredLanguage(c.GetHeader("Accept-Language"))
}

// writeError maps err to a status code and a localized message. Internal
// causes are logged, never returned.
func (h *Handler) writeError(c *gin.Context, err error) {
	kind := complaint.KindOf(err)
	status, ok := errorStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if kind == complaint.KindInternal {
		h.Logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"kind":    kind,
			"message": h.Messages.GetString(language(c), complaint.MessageOf(err)),
		},
	})
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.Health)

	api := r.Group("/api", h.Authenticate)
	api.GET("/me", h.Me)

	complaints := api.Group("/complaints")
	complaints.POST("", h.SubmitComplaint)
	complaints.GET("", h.Feed)
	complaints.GET("/mine", h.Mine)
	complaints.GET("/trending", h.Trending)
	complaints.GET("/stats", h.Stats)
	complaints.GET("/:id", h.GetComplaint)
	complaints.PATCH("/:id/status", h.SetStatus)
	complaints.POST("/:id/upvote", h.ToggleUpvote)
	complaints.GET("/:id/comments", h.ListComments)
	complaints.POST("/:id/comments", h.AddComment)
	complaints.DELETE("/:id/comments/:commentID", h.DeleteComment)
	complaints.GET("/:id/notes", h.ListNotes)
	complaints.POST("/:id/notes", h.AddNote)

	admin := api.Group("/admin")
	admin.GET("/complaints", h.AdminComplaints)
	admin.GET("/complaints/export.csv", h.ExportComplaints)
	admin.GET("/users", h.Users)
	admin.PATCH("/users/:uid/role", h.SetRole)

	r.GET("/ws", h.Authenticate, h.ServeWebSocket)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
