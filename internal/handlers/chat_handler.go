package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/wellness-api/internal/middleware"
)

type chatRequest struct {
	Message string `json:"message"`
}

// HandleChat answers a nutrition question. Upstream model failures are hidden
// behind the fallback answer, so only bad input or storage errors fail here.
func (h *Handler) HandleChat(c *gin.Context) {
	var req chatRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "Message is required")
		return
	}

	user := middleware.CurrentUser(c)
	msg, err := h.Chat.Send(c.Request.Context(), user.ID, req.Message)
	if err != nil {
		if statusFor(err) == http.StatusBadRequest {
			respondError(c, err, "Message is required")
			return
		}
		respondError(c, err, "Failed to process chat message")
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": msg.Response, "id": msg.ID})
}

// GetChatHistory lists recent exchanges, newest first. ?limit defaults to 10.
func (h *Handler) GetChatHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	user := middleware.CurrentUser(c)
	messages, err := h.Chat.History(c.Request.Context(), user.ID, limit)
	if err != nil {
		respondError(c, err, "Failed to fetch chat history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
