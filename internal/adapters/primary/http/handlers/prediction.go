package handlers

import (
	"net/http"
	"strconv"

	"rabies-risk-service/internal/adapters/primary/http/dto"
	"rabies-risk-service/internal/core/domain"
	"rabies-risk-service/internal/core/ports/output"
	"rabies-risk-service/internal/core/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const headerUserID = "X-User-ID"

// Predict scores one exposure. When history is enabled the caller must send
// X-User-ID and the capped percentage is recorded before responding.
func (h *Handler) Predict(c *gin.Context) {
	userID := uuid.Nil
	if h.historySvc.Enabled() {
		id, err := getUserID(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrMissingUserID.Error()})
			return
		}
		userID = id
	}

	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.inferenceSvc.Predict(raw)
	if err != nil {
		log.WithError(err).Warn("prediction failed")
		mapDomainError(c, err)
		return
	}

	var record *domain.PredictionRecord
	if h.historySvc.Enabled() {
		record, err = h.historySvc.Record(c.Request.Context(), userID, raw, result)
		if err != nil {
			log.WithError(err).Error("record prediction failed")
			mapDomainError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, dto.ToPredictResponse(result, record))
}

func (h *Handler) ListHistory(c *gin.Context) {
	if !h.historySvc.Enabled() {
		mapDomainError(c, domain.ErrHistoryUnavailable)
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrMissingUserID.Error()})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return
	}

	filter := ports.HistoryFilter{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	}

	records, total, err := h.historySvc.List(c.Request.Context(), filter)
	if err != nil {
		log.WithError(err).Error("list predictions failed")
		mapDomainError(c, err)
		return
	}

	items := make([]dto.PredictionRecordResponse, 0, len(records))
	for _, r := range records {
		items = append(items, dto.ToPredictionRecordResponse(r))
	}

	resp := dto.ListPredictionsResponse{
		Items:    items,
		Total:    total,
		PageSize: services.PageSize(limit),
	}
	if next := offset + len(items); len(items) > 0 && next < total {
		resp.NextOffset = &next
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetModel(c *gin.Context) {
	meta, err := h.inferenceSvc.Metadata()
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToModelInfoResponse(meta))
}

func getUserID(c *gin.Context) (uuid.UUID, error) {
	header := c.GetHeader(headerUserID)
	if header == "" {
		return uuid.Nil, domain.ErrMissingUserID
	}
	id, err := uuid.Parse(header)
	if err != nil {
		return uuid.Nil, err
	}
	if id == uuid.Nil {
		return uuid.Nil, domain.ErrMissingUserID
	}
	return id, nil
}
