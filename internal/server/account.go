package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallbiznis/inkpost/internal/account/domain"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

func (s *Server) Register(c *gin.Context) {
	var req accountdomain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if _, err := s.accountSvc.Register(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User Registered Successfully"})
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		AbortWithError(c, newValidationError("credentials", "required", "email and password are required"))
		return
	}

	pair, err := s.authsvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

func (s *Server) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Refresh) == "" {
		AbortWithError(c, newValidationError("refresh", "required", "refresh is required"))
		return
	}

	pair, err := s.authsvc.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

func (s *Server) VerifyToken(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		AbortWithError(c, newValidationError("token", "required", "token is required"))
		return
	}

	if err := s.authsvc.Verify(c.Request.Context(), req.Token); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

func (s *Server) RequestPasswordReset(c *gin.Context) {
	var req passwordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.accountSvc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password Reset Email Sent Successfully"})
}

func (s *Server) ConfirmPasswordReset(c *gin.Context) {
	var req accountdomain.ConfirmPasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.accountSvc.ConfirmPasswordReset(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset successfully"})
}

func (s *Server) ListAccounts(c *gin.Context) {
	accounts, err := s.accountSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if accounts == nil {
		accounts = []accountdomain.Account{}
	}

	c.JSON(http.StatusOK, accounts)
}

func (s *Server) LoggedInAccount(c *gin.Context) {
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}

	account, err := s.accountSvc.GetByID(c.Request.Context(), accountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}
