package controllers

import (
	"net/http"

	"nutrilens/services"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	Accounts *services.AccountService
}

func NewUserController(accounts *services.AccountService) *UserController {
	return &UserController{Accounts: accounts}
}

// GET /api/accounts/my-info/
func (h *UserController) GetProfile(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	user, err := h.Accounts.GetUser(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.UserResponse(user))
}

// PUT /api/accounts/my-info/
func (h *UserController) UpdateProfile(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var input services.ProfileUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Accounts.UpdateProfile(c.Request.Context(), uid, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.UserResponse(user))
}
