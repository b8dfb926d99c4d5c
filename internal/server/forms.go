package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	entrydomain "github.com/smallbiznis/formpay/internal/entry/domain"
)

type createFormRequest struct {
	Title         string                     `json:"title"`
	Currency      string                     `json:"currency"`
	Notifications []entrydomain.Notification `json:"notifications"`
}

func (s *Server) CreateForm(c *gin.Context) {
	var req createFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}

	resp, err := s.entrySvc.CreateForm(c.Request.Context(), entrydomain.Form{
		Title:         strings.TrimSpace(req.Title),
		Currency:      currency,
		Notifications: req.Notifications,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetForm(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.entrySvc.GetForm(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
