package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	feeddomain "github.com/smallbiznis/formpay/internal/feed/domain"
)

func (s *Server) CreateFeed(c *gin.Context) {
	var req feeddomain.Feed
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = 0

	ctx := c.Request.Context()
	if _, err := s.entrySvc.GetForm(ctx, req.FormID); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.feedSvc.Create(ctx, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetFeed(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.feedSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateFeed(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req feeddomain.Feed
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = id

	resp, err := s.feedSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
