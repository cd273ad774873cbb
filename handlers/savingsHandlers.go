package handlers

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/mfi_backend/config"
	"bitbucket.org/mmdatafocus/mfi_backend/models"
	"bitbucket.org/mmdatafocus/mfi_backend/workflow"
	"github.com/gin-gonic/gin"
)

func CreateSavingsAccount(c *gin.Context) {
	var input workflow.CreateAccountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	account, err := workflow.CreateAccount(c.Request.Context(), input)
	if err != nil {
		respondError(c, "savingsHandlers.go", "CreateSavingsAccount", err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func accountMovement(c *gin.Context, funcName string, op func(*workflow.SavingsMovementInput) (*models.SavingsTransaction, error)) {
	accountId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}
	var input workflow.SavingsMovementInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	input.AccountId = accountId
	stx, err := op(&input)
	if err != nil {
		respondError(c, "savingsHandlers.go", funcName, err)
		return
	}
	c.JSON(http.StatusCreated, stx)
}

func DepositToAccount(c *gin.Context) {
	accountMovement(c, "DepositToAccount", func(input *workflow.SavingsMovementInput) (*models.SavingsTransaction, error) {
		return workflow.Deposit(c.Request.Context(), *input)
	})
}

func WithdrawFromAccount(c *gin.Context) {
	accountMovement(c, "WithdrawFromAccount", func(input *workflow.SavingsMovementInput) (*models.SavingsTransaction, error) {
		return workflow.Withdraw(c.Request.Context(), *input)
	})
}

func ApproveWithdrawal(c *gin.Context) {
	txId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction id"})
		return
	}
	stx, err := workflow.ApproveWithdrawal(c.Request.Context(), txId)
	if err != nil {
		respondError(c, "savingsHandlers.go", "ApproveWithdrawal", err)
		return
	}
	c.JSON(http.StatusOK, stx)
}

func RejectWithdrawal(c *gin.Context) {
	txId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction id"})
		return
	}
	stx, err := workflow.RejectWithdrawal(c.Request.Context(), txId)
	if err != nil {
		respondError(c, "savingsHandlers.go", "RejectWithdrawal", err)
		return
	}
	c.JSON(http.StatusOK, stx)
}

func accountStatusChange(c *gin.Context, funcName string, op func(int) (*models.SavingsAccount, error)) {
	accountId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}
	account, err := op(accountId)
	if err != nil {
		respondError(c, "savingsHandlers.go", funcName, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func FreezeAccount(c *gin.Context) {
	accountStatusChange(c, "FreezeAccount", func(id int) (*models.SavingsAccount, error) {
		return workflow.FreezeAccount(c.Request.Context(), id)
	})
}

func UnfreezeAccount(c *gin.Context) {
	accountStatusChange(c, "UnfreezeAccount", func(id int) (*models.SavingsAccount, error) {
		return workflow.UnfreezeAccount(c.Request.Context(), id)
	})
}

func CloseAccount(c *gin.Context) {
	accountStatusChange(c, "CloseAccount", func(id int) (*models.SavingsAccount, error) {
		return workflow.CloseAccount(c.Request.Context(), id)
	})
}

func GetAccountTransactions(c *gin.Context) {
	accountId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}
	ctx := c.Request.Context()
	actor := workflow.ActorFromContext(ctx)
	db := config.GetDB()

	account, err := models.GetSavingsAccountById(ctx, db, accountId)
	if err != nil {
		respondError(c, "savingsHandlers.go", "GetAccountTransactions", err)
		return
	}
	if err := workflow.RequireBranch(actor, account.BranchId); err != nil {
		respondError(c, "savingsHandlers.go", "GetAccountTransactions", err)
		return
	}

	var txs []models.SavingsTransaction
	if err := db.WithContext(ctx).
		Where("account_id = ?", accountId).
		Order("created_at ASC").
		Find(&txs).Error; err != nil {
		respondError(c, "savingsHandlers.go", "GetAccountTransactions", err)
		return
	}
	balance, err := models.GetAccountBalance(ctx, db, accountId)
	if err != nil {
		respondError(c, "savingsHandlers.go", "GetAccountTransactions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "balance": balance, "transactions": txs})
}

func ListPendingWithdrawals(c *gin.Context) {
	branchId, err := strconv.Atoi(c.Query("branch_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branch_id"})
		return
	}
	rows, err := workflow.PendingWithdrawals(c.Request.Context(), branchId)
	if err != nil {
		respondError(c, "savingsHandlers.go", "ListPendingWithdrawals", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
