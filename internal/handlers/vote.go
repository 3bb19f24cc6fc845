package handlers

import (
	"net/http"

	"poker-planning-backend/internal/models"
	"poker-planning-backend/internal/services"
	"poker-planning-backend/internal/ws"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	voteService *services.VoteService
	roomService *services.RoomService
	hub         *ws.Hub
}

func NewVoteHandler(voteService *services.VoteService, roomService *services.RoomService, hub *ws.Hub) *VoteHandler {
	return &VoteHandler{voteService: voteService, roomService: roomService, hub: hub}
}

type PickCardRequest struct {
	// UserID is optional and only accepted when it matches the token
	// identity; votes are always cast as the authenticated user.
	UserID    uint    `json:"user_id"`
	CardLabel string  `json:"card_label" binding:"required"`
	CardValue float64 `json:"card_value"`
}

type BotVoteRequest struct {
	BotUserID uint    `json:"bot_user_id" binding:"required"`
	CardLabel string  `json:"card_label" binding:"required"`
	CardValue float64 `json:"card_value"`
}

func (h *VoteHandler) PickCard(c *gin.Context) {
	userID := c.GetUint("user_id")
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req PickCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if req.UserID != 0 && req.UserID != userID {
		respondError(c, models.ErrIdentityMismatch)
		return
	}

	if err := h.voteService.PickCard(roomID, userID, req.CardLabel, req.CardValue); err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(roomID, "vote_cast")
	c.JSON(http.StatusOK, MessageResponse{Message: "vote recorded"})
}

func (h *VoteHandler) RemoveCard(c *gin.Context) {
	userID := c.GetUint("user_id")
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.voteService.RemoveCard(roomID, userID); err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(roomID, "vote_removed")
	c.JSON(http.StatusOK, MessageResponse{Message: "vote removed"})
}

func (h *VoteHandler) PickCardForBot(c *gin.Context) {
	userID := c.GetUint("user_id")
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req BotVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.voteService.PickCardForBot(roomID, userID, req.BotUserID, req.CardLabel, req.CardValue); err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(roomID, "vote_cast")
	c.JSON(http.StatusOK, MessageResponse{Message: "bot vote recorded"})
}

func (h *VoteHandler) broadcastState(roomID uint, event string) {
	state, err := h.roomService.GetRoomState(roomID, 0)
	if err != nil {
		return
	}
	h.hub.Broadcast(roomID, ws.WSMessage{Type: event, Data: state})
}
