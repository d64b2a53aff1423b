package controllers

import (
	"net/http"
	"strconv"

	"nutrilens/services"

	"github.com/gin-gonic/gin"
)

type EvaluationController struct {
	Svc *services.EvaluationService
}

func NewEvaluationController(svc *services.EvaluationService) *EvaluationController {
	return &EvaluationController{Svc: svc}
}

// POST /api/accounts/evaluate/
func (h *EvaluationController) Evaluate(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	res, err := h.Svc.Evaluate(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/accounts/history/?page=N
func (h *EvaluationController) History(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid page."})
		return
	}

	out, err := h.Svc.History(c.Request.Context(), uid, page)
	if err != nil {
		respondError(c, err)
		return
	}
	results := make([]services.HistoryDTO, len(out.Results))
	for i := range out.Results {
		results[i] = services.HistoryResponse(&out.Results[i])
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    out.Count,
		"page":     out.Page,
		"next":     out.Next,
		"previous": out.Previous,
		"results":  results,
	})
}

// GET /api/accounts/history/:date/
func (h *EvaluationController) HistoryDetail(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	hist, err := h.Svc.HistoryFor(c.Request.Context(), uid, c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.HistoryResponse(hist))
}
