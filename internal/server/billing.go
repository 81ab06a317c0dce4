package server

import (
	"context"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	subscriptiondomain "github.com/smallbiznis/inkpost/internal/subscription/domain"
)

func (s *Server) RegisterCustomer(c *gin.Context) {
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}

	customer, err := s.customerSvc.CreateForAccount(c.Request.Context(), accountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, customer)
}

// CreateTestPaymentMethod mints a card payment method from the provider's
// test token. Registered outside production only.
func (s *Server) CreateTestPaymentMethod(c *gin.Context) {
	if s.cfg.IsProduction() {
		AbortWithError(c, ErrNotFound)
		return
	}

	pm, err := s.payments.CreateTestPaymentMethod(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_method_id": pm.ID,
		"status":            "success",
	})
}

func (s *Server) CreateSubscription(c *gin.Context) {
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}

	var req subscriptiondomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	sub, err := s.subscriptionSvc.Create(c.Request.Context(), accountID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sub)
}

func (s *Server) UpdateSubscription(c *gin.Context) {
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}

	var req subscriptiondomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	sub, err := s.subscriptionSvc.Update(c.Request.Context(), accountID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

func (s *Server) CancelSubscription(c *gin.Context) {
	s.subscriptionLifecycle(c, s.subscriptionSvc.Cancel)
}

func (s *Server) ResumeSubscription(c *gin.Context) {
	s.subscriptionLifecycle(c, s.subscriptionSvc.Resume)
}

type lifecycleFunc func(ctx context.Context, accountID snowflake.ID, req subscriptiondomain.LifecycleRequest) (*subscriptiondomain.Subscription, error)

func (s *Server) subscriptionLifecycle(c *gin.Context, fn lifecycleFunc) {
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}

	var req subscriptiondomain.LifecycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	sub, err := fn(c.Request.Context(), accountID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

func (s *Server) RetrieveSubscription(c *gin.Context) {
	view, err := s.subscriptionSvc.Retrieve(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) ListSubscriptions(c *gin.Context) {
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}

	subs, err := s.subscriptionSvc.List(c.Request.Context(), accountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, subs)
}
