package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"smartcampus/backend/internal/complaint"
	"smartcampus/backend/internal/models"
)

// SubmitComplaint is the only way to create a complaint.
func (h *Handler) SubmitComplaint(c *gin.Context) {
	var req complaint.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, complaint.InvalidRequest(err))
		return
	}
	req.Language = language(c)

	res, err := h.Gateway.Submit(c.Request.Context(), callerFrom(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Feed(c *gin.Context) {
	list, err := h.Service.Feed(c.Request.Context(), models.ComplaintOrder(c.Query("order")))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Mine(c *gin.Context) {
	list, err := h.Service.Mine(c.Request.Context(), callerFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Trending(c *gin.Context) {
	n, _ := strconv.Atoi(c.Query("n"))
	list, err := h.Service.Trending(c.Request.Context(), n)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Stats(c *gin.Context) {
	st, err := h.Service.Stats(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) GetComplaint(c *gin.Context) {
	cp, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cp)
}

type statusRequest struct {
	Status models.Status `json:"status"`
}

func (h *Handler) SetStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, complaint.InvalidRequest(err))
		return
	}
	cp, err := h.Service.SetStatus(c.Request.Context(), callerFrom(c), c.Param("id"), req.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cp)
}

func (h *Handler) ToggleUpvote(c *gin.Context) {
	cp, err := h.Service.ToggleUpvote(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cp)
}

type textRequest struct {
	Text string `json:"text"`
}

func (h *Handler) ListComments(c *gin.Context) {
	list, err := h.Service.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) AddComment(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, complaint.InvalidRequest(err))
		return
	}
	cm, err := h.Service.AddComment(c.Request.Context(), callerFrom(c), c.Param("id"), req.Text)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cm)
}

func (h *Handler) DeleteComment(c *gin.Context) {
	err := h.Service.DeleteComment(c.Request.Context(), callerFrom(c), c.Param("id"), c.Param("commentID"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListNotes(c *gin.Context) {
	list, err := h.Service.ListNotes(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) AddNote(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, complaint.InvalidRequest(err))
		return
	}
	n, err := h.Service.AddNote(c.Request.Context(), callerFrom(c), c.Param("id"), req.Text)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}
