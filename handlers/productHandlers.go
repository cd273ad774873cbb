package handlers

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/mfi_backend/config"
	"bitbucket.org/mmdatafocus/mfi_backend/models"
	"bitbucket.org/mmdatafocus/mfi_backend/workflow"
	"github.com/gin-gonic/gin"
)

func CreateLoanProduct(c *gin.Context) {
	var product models.LoanProduct
	if err := c.ShouldBindJSON(&product); err != nil {
		respondBindError(c, err)
		return
	}
	if err := workflow.CreateLoanProduct(c.Request.Context(), &product); err != nil {
		respondError(c, "productHandlers.go", "CreateLoanProduct", err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func CreateSavingsProduct(c *gin.Context) {
	var product models.SavingsProduct
	if err := c.ShouldBindJSON(&product); err != nil {
		respondBindError(c, err)
		return
	}
	if err := workflow.CreateSavingsProduct(c.Request.Context(), &product); err != nil {
		respondError(c, "productHandlers.go", "CreateSavingsProduct", err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func UpdateSavingsProduct(c *gin.Context) {
	productId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	var existing models.SavingsProduct
	if err := config.GetDB().WithContext(c.Request.Context()).
		Where("id = ?", productId).First(&existing).Error; err != nil {
		respondError(c, "productHandlers.go", "UpdateSavingsProduct", err)
		return
	}
	if err := c.ShouldBindJSON(&existing); err != nil {
		respondBindError(c, err)
		return
	}
	existing.ID = productId
	if err := workflow.UpdateSavingsProduct(c.Request.Context(), &existing); err != nil {
		respondError(c, "productHandlers.go", "UpdateSavingsProduct", err)
		return
	}
	c.JSON(http.StatusOK, existing)
}
