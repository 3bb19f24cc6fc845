package handlers

import (
	"net/http"

	"poker-planning-backend/internal/services"
	"poker-planning-backend/internal/ws"

	"github.com/gin-gonic/gin"
)

type IssueHandler struct {
	issueService *services.IssueService
	roomService  *services.RoomService
	hub          *ws.Hub
}

func NewIssueHandler(issueService *services.IssueService, roomService *services.RoomService, hub *ws.Hub) *IssueHandler {
	return &IssueHandler{issueService: issueService, roomService: roomService, hub: hub}
}

type CreateIssueRequest struct {
	Title string `json:"title" binding:"required,max=500"`
}

type UpdateIssueRequest struct {
	Title string `json:"title" binding:"required,max=500"`
}

type EstimateRequest struct {
	FinalEstimate string `json:"final_estimate" binding:"required,max=50"`
}

type ReorderRequest struct {
	IssueIDs []uint `json:"issue_ids" binding:"required"`
}

func (h *IssueHandler) ListIssues(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	issues, err := h.issueService.List(roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

func (h *IssueHandler) CreateIssue(c *gin.Context) {
	userID := c.GetUint("user_id")
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	issue, err := h.issueService.Create(roomID, userID, req.Title)
	if err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(roomID, "issue_created")
	c.JSON(http.StatusCreated, issue)
}

func (h *IssueHandler) UpdateIssue(c *gin.Context) {
	userID := c.GetUint("user_id")
	issueID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req UpdateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	issue, err := h.issueService.UpdateTitle(issueID, userID, req.Title)
	if err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(issue.RoomID, "issue_updated")
	c.JSON(http.StatusOK, issue)
}

func (h *IssueHandler) SetEstimate(c *gin.Context) {
	userID := c.GetUint("user_id")
	issueID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	issue, err := h.issueService.SetEstimate(issueID, userID, req.FinalEstimate)
	if err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(issue.RoomID, "issue_updated")
	c.JSON(http.StatusOK, issue)
}

func (h *IssueHandler) DeleteIssue(c *gin.Context) {
	userID := c.GetUint("user_id")
	issueID, ok := paramID(c, "id")
	if !ok {
		return
	}

	issue, err := h.issueService.Get(issueID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.issueService.Delete(issueID, userID); err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(issue.RoomID, "issue_deleted")
	c.JSON(http.StatusOK, MessageResponse{Message: "issue deleted"})
}

func (h *IssueHandler) StartVoting(c *gin.Context) {
	userID := c.GetUint("user_id")
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	issueID, ok := paramID(c, "issueId")
	if !ok {
		return
	}

	if err := h.issueService.StartVoting(roomID, issueID, userID); err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(roomID, "voting_started")
	c.JSON(http.StatusOK, MessageResponse{Message: "voting started"})
}

func (h *IssueHandler) Reveal(c *gin.Context) {
	userID := c.GetUint("user_id")
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.issueService.Reveal(roomID, userID); err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(roomID, "revealed")
	c.JSON(http.StatusOK, MessageResponse{Message: "cards revealed"})
}

func (h *IssueHandler) ResetRound(c *gin.Context) {
	userID := c.GetUint("user_id")
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.issueService.ResetRound(roomID, userID); err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(roomID, "round_reset")
	c.JSON(http.StatusOK, MessageResponse{Message: "round reset"})
}

func (h *IssueHandler) SwitchToAdHoc(c *gin.Context) {
	userID := c.GetUint("user_id")
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.issueService.SwitchToAdHoc(roomID, userID); err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(roomID, "switched_to_ad_hoc")
	c.JSON(http.StatusOK, MessageResponse{Message: "switched to quick vote"})
}

func (h *IssueHandler) Reorder(c *gin.Context) {
	userID := c.GetUint("user_id")
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.issueService.Reorder(roomID, userID, req.IssueIDs); err != nil {
		respondError(c, err)
		return
	}

	h.broadcastState(roomID, "issues_reordered")
	c.JSON(http.StatusOK, MessageResponse{Message: "issues reordered"})
}

func (h *IssueHandler) ExportIssues(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}

	rows, err := h.issueService.ExportRows(roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *IssueHandler) broadcastState(roomID uint, event string) {
	state, err := h.roomService.GetRoomState(roomID, 0)
	if err != nil {
		return
	}
	h.hub.Broadcast(roomID, ws.WSMessage{Type: event, Data: state})
}
