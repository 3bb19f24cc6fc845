package handlers

import (
	"net/http"

	"poker-planning-backend/internal/models"
	"poker-planning-backend/internal/services"
	"poker-planning-backend/internal/ws"

	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	roleService *services.RoleService
	roomService *services.RoomService
	hub         *ws.Hub
}

func NewMemberHandler(roleService *services.RoleService, roomService *services.RoomService, hub *ws.Hub) *MemberHandler {
	return &MemberHandler{roleService: roleService, roomService: roomService, hub: hub}
}

type UpdatePermissionsRequest struct {
	RevealCards     string `json:"reveal_cards" binding:"required"`
	GameFlow        string `json:"game_flow" binding:"required"`
	IssueManagement string `json:"issue_management" binding:"required"`
	RoomSettings    string `json:"room_settings" binding:"required"`
}

func (h *MemberHandler) Promote(c *gin.Context) {
	userID := c.GetUint("user_id")
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	targetID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	if err := h.roleService.Promote(roomID, userID, targetID); err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(roomID, "member_updated")
	c.JSON(http.StatusOK, MessageResponse{Message: "member promoted"})
}

func (h *MemberHandler) Demote(c *gin.Context) {
	userID := c.GetUint("user_id")
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	targetID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	if err := h.roleService.Demote(roomID, userID, targetID); err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(roomID, "member_updated")
	c.JSON(http.StatusOK, MessageResponse{Message: "member demoted"})
}

func (h *MemberHandler) TransferOwnership(c *gin.Context) {
	userID := c.GetUint("user_id")
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	targetID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	if err := h.roleService.TransferOwnership(roomID, userID, targetID); err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(roomID, "ownership_transferred")
	c.JSON(http.StatusOK, MessageResponse{Message: "ownership transferred"})
}

func (h *MemberHandler) UpdatePermissions(c *gin.Context) {
	userID := c.GetUint("user_id")
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req UpdatePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	perms := models.RoomPermissions{
		RevealCards:     req.RevealCards,
		GameFlow:        req.GameFlow,
		IssueManagement: req.IssueManagement,
		RoomSettings:    req.RoomSettings,
	}
	if err := h.roleService.UpdatePermissions(roomID, userID, perms); err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(roomID, "settings_changed")
	c.JSON(http.StatusOK, MessageResponse{Message: "permissions updated"})
}

func (h *MemberHandler) RemoveMember(c *gin.Context) {
	userID := c.GetUint("user_id")
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	targetID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	if err := h.roleService.RemoveMember(roomID, userID, targetID); err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(roomID, "member_left")
	c.JSON(http.StatusOK, MessageResponse{Message: "member removed"})
}

func (h *MemberHandler) broadcastState(roomID uint, event string) {
	state, err := h.roomService.GetRoomState(roomID, 0)
	if err != nil {
		return
	}
	h.hub.Broadcast(roomID, ws.WSMessage{Type: event, Data: state})
}
