package handlers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/mfi_backend/models"
	"bitbucket.org/mmdatafocus/mfi_backend/utils"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := models.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if user.IsActive != nil && !*user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err := utils.ComparePassword(user.Password, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := utils.JwtGenerate(user.ID, user.Username, string(user.Role), user.BranchId)
	if err != nil {
		respondError(c, "authHandlers.go", "Login", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}
