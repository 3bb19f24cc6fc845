package handlers

import (
	"net/http"

	"poker-planning-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (h *AnalyticsHandler) RoomSummary(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	summary, err := h.analyticsService.GetRoomSummary(roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *AnalyticsHandler) AgreementOverTime(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	points, err := h.analyticsService.GetAgreementOverTime(roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

func (h *AnalyticsHandler) VoteDistribution(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	items, err := h.analyticsService.GetVoteDistribution(roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *AnalyticsHandler) VoterAlignment(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	alignment, err := h.analyticsService.GetVoterAlignment(roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alignment)
}
