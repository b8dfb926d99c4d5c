package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	submissiondomain "github.com/smallbiznis/formpay/internal/submission/domain"
)

func (s *Server) SubmitForm(c *gin.Context) {
	formID, ok := pathID(c)
	if !ok {
		return
	}

	var req submissiondomain.Input
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.submitSvc.Submit(c.Request.Context(), formID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// A declined payment is a completed request; the outcome rides in the body.
	status := http.StatusOK
	if !result.IsSuccess {
		status = http.StatusPaymentRequired
	}
	c.JSON(status, gin.H{"data": result})
}
