package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetEntry(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	entry, err := s.entrySvc.GetEntry(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	notes, err := s.entrySvc.ListNotes(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"entry": entry,
		"notes": notes,
	}})
}

func (s *Server) CancelEntry(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	cancelled, err := s.submitSvc.Cancel(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !cancelled {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"cancelled": true}})
}
