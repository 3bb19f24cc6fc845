package handlers

import (
	"net/http"

	"poker-planning-backend/internal/models"
	"poker-planning-backend/internal/services"
	"poker-planning-backend/internal/ws"

	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	roomService *services.RoomService
	hub         *ws.Hub
}

func NewRoomHandler(roomService *services.RoomService, hub *ws.Hub) *RoomHandler {
	return &RoomHandler{roomService: roomService, hub: hub}
}

type JoinRoomRequest struct {
	IsSpectator bool `json:"is_spectator"`
}

type RenameRoomRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

type AddBotRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID := c.GetUint("user_id")
	var req services.CreateRoomArgs
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	room, err := h.roomService.CreateRoom(userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	userID := c.GetUint("user_id")
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}

	state, err := h.roomService.GetRoomState(roomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *RoomHandler) JoinRoom(c *gin.Context) {
	userID := c.GetUint("user_id")
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req JoinRoomRequest
	_ = c.ShouldBindJSON(&req)

	membership, err := h.roomService.Join(roomID, userID, req.IsSpectator)
	if err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(roomID, "member_joined")
	c.JSON(http.StatusOK, membership)
}

func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	userID := c.GetUint("user_id")
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.roomService.Leave(roomID, userID); err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(roomID, "member_left")
	c.JSON(http.StatusOK, MessageResponse{Message: "left room"})
}

func (h *RoomHandler) RenameRoom(c *gin.Context) {
	userID := c.GetUint("user_id")
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req RenameRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.roomService.Rename(roomID, userID, req.Name); err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(roomID, "room_renamed")
	c.JSON(http.StatusOK, MessageResponse{Message: "room renamed"})
}

func (h *RoomHandler) ToggleAutoComplete(c *gin.Context) {
	userID := c.GetUint("user_id")
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}

	room, err := h.roomService.ToggleAutoComplete(roomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(roomID, "settings_changed")
	c.JSON(http.StatusOK, room)
}

type SpectatorRequest struct {
	IsSpectator bool `json:"is_spectator"`
}

func (h *RoomHandler) SetSpectator(c *gin.Context) {
	userID := c.GetUint("user_id")
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req SpectatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.roomService.SetSpectator(roomID, userID, req.IsSpectator); err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(roomID, "member_updated")
	c.JSON(http.StatusOK, MessageResponse{Message: "spectator status updated"})
}

func (h *RoomHandler) AddBot(c *gin.Context) {
	userID := c.GetUint("user_id")
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req AddBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	membership, err := h.roomService.AddBot(roomID, userID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(roomID, "member_joined")
	c.JSON(http.StatusCreated, membership)
}

func (h *RoomHandler) ListScales(c *gin.Context) {
	scales := make([]models.VotingScale, 0, len(models.VotingScales))
	for _, key := range []string{models.ScaleFibonacci, models.ScaleStandard, models.ScaleTShirt} {
		scales = append(scales, models.VotingScales[key])
	}
	c.JSON(http.StatusOK, scales)
}

func (h *RoomHandler) broadcastState(roomID uint, event string) {
	state, err := h.roomService.GetRoomState(roomID, 0)
	if err != nil {
		return
	}
	h.hub.Broadcast(roomID, ws.WSMessage{Type: event, Data: state})
}
