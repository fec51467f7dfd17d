package handlers

import (
	"rabies-risk-service/internal/core/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	inferenceSvc *services.InferenceService
	historySvc   *services.HistoryService
}

func New(
	inferenceSvc *services.InferenceService,
	historySvc *services.HistoryService,
) *Handler {
	return &Handler{
		inferenceSvc: inferenceSvc,
		historySvc:   historySvc,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// Predictions
	r.POST("/predict", h.Predict)
	r.GET("/history", h.ListHistory)

	// Loaded model
	r.GET("/model", h.GetModel)
}
