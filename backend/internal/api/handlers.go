package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cose-ai/backend/internal/constants"
	"cose-ai/backend/internal/state"
	apperrors "cose-ai/backend/pkg/errors"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Response    string                 `json:"response"`
	ContextUsed []state.ContextSnippet `json:"context_used"`
}

type addKnowledgeRequest struct {
	Content string `form:"content" json:"content"`
	Source  string `form:"source" json:"source"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body: " + err.Error()})
		return
	}
	if req.SessionID == "" {
		req.SessionID = constants.DefaultSessionID
	}

	result, err := s.chat.RunTurn(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		s.writeError(c, "Error processing chat", err)
		return
	}

	contextUsed := result.ContextUsed
	if contextUsed == nil {
		contextUsed = []state.ContextSnippet{}
	}
	c.JSON(http.StatusOK, chatResponse{
		Response:    result.Response,
		ContextUsed: contextUsed,
	})
}

// handleAddKnowledge accepts content and source as query parameters or as a JSON or form body
func (s *Server) handleAddKnowledge(c *gin.Context) {
	var req addKnowledgeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid query: " + err.Error()})
		return
	}
	if req.Content == "" && c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body: " + err.Error()})
			return
		}
	}

	if err := s.chat.AddKnowledge(c.Request.Context(), req.Content, req.Source); err != nil {
		s.writeError(c, "Error adding knowledge", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Knowledge added to graph",
	})
}

// writeError maps a typed error to a {detail} response: 400 for rejected input, 500 for everything else
func (s *Server) writeError(c *gin.Context, prefix string, err error) {
	var validationErr *apperrors.ErrValidationFailed
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": validationErr.Message})
		return
	}

	s.logger.Error(prefix,
		zap.String("kind", string(apperrors.KindOf(err))),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"detail": prefix + ": " + err.Error()})
}
