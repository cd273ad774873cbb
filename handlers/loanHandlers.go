package handlers

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/mfi_backend/workflow"
	"github.com/gin-gonic/gin"
)

func CreateLoan(c *gin.Context) {
	var input workflow.CreateLoanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	loan, err := workflow.CreateLoan(c.Request.Context(), input)
	if err != nil {
		respondError(c, "loanHandlers.go", "CreateLoan", err)
		return
	}
	c.JSON(http.StatusCreated, loan)
}

func CreateDraftLoan(c *gin.Context) {
	var input workflow.CreateDraftLoanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	loan, err := workflow.CreateDraftLoan(c.Request.Context(), input)
	if err != nil {
		respondError(c, "loanHandlers.go", "CreateDraftLoan", err)
		return
	}
	c.JSON(http.StatusCreated, loan)
}

func AttachLoanDocument(c *gin.Context) {
	loanId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid loan id"})
		return
	}
	var input workflow.AttachLoanDocumentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	input.LoanId = loanId
	doc, err := workflow.AttachLoanDocument(c.Request.Context(), input)
	if err != nil {
		respondError(c, "loanHandlers.go", "AttachLoanDocument", err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func SubmitLoan(c *gin.Context) {
	loanId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid loan id"})
		return
	}
	loan, err := workflow.SubmitLoan(c.Request.Context(), loanId)
	if err != nil {
		respondError(c, "loanHandlers.go", "SubmitLoan", err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

func ReviewLoan(c *gin.Context) {
	loanId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid loan id"})
		return
	}
	var input workflow.ReviewLoanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	input.LoanId = loanId
	loan, err := workflow.ReviewLoan(c.Request.Context(), input)
	if err != nil {
		respondError(c, "loanHandlers.go", "ReviewLoan", err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

func DisburseLoan(c *gin.Context) {
	loanId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid loan id"})
		return
	}
	var input workflow.DisburseLoanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	input.LoanId = loanId
	loan, err := workflow.DisburseLoan(c.Request.Context(), input)
	if err != nil {
		respondError(c, "loanHandlers.go", "DisburseLoan", err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

func RecordRepayment(c *gin.Context) {
	loanId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid loan id"})
		return
	}
	var input workflow.RepaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	input.LoanId = loanId
	repayment, err := workflow.AllocateRepaymentToSchedule(c.Request.Context(), input)
	if err != nil {
		respondError(c, "loanHandlers.go", "RecordRepayment", err)
		return
	}
	c.JSON(http.StatusCreated, repayment)
}

func GetLoanSchedule(c *gin.Context) {
	loanId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid loan id"})
		return
	}
	view, err := workflow.GetLoanSchedule(c.Request.Context(), loanId)
	if err != nil {
		respondError(c, "loanHandlers.go", "GetLoanSchedule", err)
		return
	}
	c.JSON(http.StatusOK, view)
}
