package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"smartcampus/backend/internal/complaint"
	"smartcampus/backend/internal/models"
)

func adminQuery(c *gin.Context) complaint.AdminQuery {
	page, _ := strconv.Atoi(c.Query("page"))
	return complaint.AdminQuery{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Status:   models.Status(c.Query("status")),
		Page:     page,
	}
}

func (h *Handler) AdminComplaints(c *gin.Context) {
	page, err := h.Service.AdminList(c.Request.Context(), callerFrom(c), adminQuery(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ExportComplaints streams the filtered dashboard as a CSV attachment.
func (h *Handler) ExportComplaints(c *gin.Context) {
	caller := callerFrom(c)
	if !caller.IsAdmin() {
		h.writeError(c, complaint.PermissionDenied())
		return
	}

	name := fmt.Sprintf("complaints-export-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	if err := h.Service.ExportCSV(c.Request.Context(), caller, c.Writer, adminQuery(c)); err != nil {
		h.writeError(c, err)
	}
}

func (h *Handler) Users(c *gin.Context) {
	users, err := h.Service.Users(c.Request.Context(), callerFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

type roleRequest struct {
	Role models.Role `json:"role"`
}

func (h *Handler) SetRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, complaint.InvalidRequest(err))
		return
	}
	u, err := h.Service.SetRole(c.Request.Context(), callerFrom(c), c.Param("uid"), req.Role)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
