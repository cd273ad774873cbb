package handlers

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/mfi_backend/config"
	"bitbucket.org/mmdatafocus/mfi_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func AllocateTellerSession(c *gin.Context) {
	var input workflow.AllocateSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	session, err := workflow.AllocateSession(c.Request.Context(), input)
	if err != nil {
		respondError(c, "cashHandlers.go", "AllocateTellerSession", err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

type confirmSessionRequest struct {
	CountedOpeningAmount decimal.Decimal `json:"counted_opening_amount" binding:"required"`
}

func ConfirmTellerSession(c *gin.Context) {
	sessionId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	var req confirmSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	session, err := workflow.ConfirmSessionOpening(c.Request.Context(), sessionId, req.CountedOpeningAmount)
	if err != nil {
		respondError(c, "cashHandlers.go", "ConfirmTellerSession", err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type closeSessionRequest struct {
	CountedClosingAmount decimal.Decimal `json:"counted_closing_amount"`
	VarianceNote         string          `json:"variance_note"`
}

func CloseTellerSession(c *gin.Context) {
	sessionId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	var req closeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	session, err := workflow.CloseSession(c.Request.Context(), workflow.CloseSessionInput{
		SessionId:            sessionId,
		CountedClosingAmount: req.CountedClosingAmount,
		VarianceNote:         req.VarianceNote,
	})
	if err != nil {
		respondError(c, "cashHandlers.go", "CloseTellerSession", err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type reviewSessionRequest struct {
	Note string `json:"note"`
}

func ReviewTellerSession(c *gin.Context) {
	sessionId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	var req reviewSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	session, err := workflow.ReviewSession(c.Request.Context(), sessionId, req.Note)
	if err != nil {
		respondError(c, "cashHandlers.go", "ReviewTellerSession", err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func MyActiveTellerSession(c *gin.Context) {
	actor := workflow.ActorFromContext(c.Request.Context())
	session, err := workflow.GetActiveSessionForCashier(c.Request.Context(), config.GetDB(), actor.ID)
	if err != nil {
		respondError(c, "cashHandlers.go", "MyActiveTellerSession", err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func PostCashLedgerEntry(c *gin.Context) {
	var input workflow.PostCashEntryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	entry, err := workflow.PostCashEntry(c.Request.Context(), input)
	if err != nil {
		respondError(c, "cashHandlers.go", "PostCashLedgerEntry", err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

type reverseEntryRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func ReverseCashLedgerEntry(c *gin.Context) {
	entryId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}
	var req reverseEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	reversal, err := workflow.ReverseCashEntry(c.Request.Context(), entryId, req.Reason)
	if err != nil {
		respondError(c, "cashHandlers.go", "ReverseCashLedgerEntry", err)
		return
	}
	c.JSON(http.StatusCreated, reversal)
}
