package controllers

import (
	"net/http"
	"strings"
	"time"

	"nutrilens/services"
	"nutrilens/utils"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	Accounts  *services.AccountService
	JWTSecret string
	JWTTTL    time.Duration
}

func NewAuthController(accounts *services.AccountService, secret string, ttl time.Duration) *AuthController {
	return &AuthController{Accounts: accounts, JWTSecret: secret, JWTTTL: ttl}
}

// POST /api/accounts/register/
func (h *AuthController) Register(c *gin.Context) {
	var input services.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Accounts.Register(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "registration successful", "id": user.ID})
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /api/accounts/login/
func (h *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})
		return
	}
	if strings.TrimSpace(input.Username) == "" || input.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Username and password are required."})
		return
	}

	user, err := h.Accounts.Authenticate(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := utils.GenerateJWT(user.ID, user.Username, h.JWTSecret, h.JWTTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"name":     user.Name,
		},
	})
}

// POST /api/accounts/password/forgot/
func (h *AuthController) ForgotPassword(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.Accounts.RequestPasswordReset(c.Request.Context(), input.Username); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a reset code has been sent"})
}

// POST /api/accounts/password/reset/
func (h *AuthController) ResetPassword(c *gin.Context) {
	var input struct {
		Username    string `json:"username" binding:"required"`
		Code        string `json:"code" binding:"required"`
		NewPassword string `json:"new_password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := h.Accounts.ResetPassword(c.Request.Context(), input.Username, input.Code, input.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}
