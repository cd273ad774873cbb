package handlers

import (
	"errors"
	"net/http"

	"bitbucket.org/mmdatafocus/mfi_backend/config"
	"bitbucket.org/mmdatafocus/mfi_backend/utils"
	"bitbucket.org/mmdatafocus/mfi_backend/workflow"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// statusForError maps the engine's failure taxonomy onto HTTP: bad input 400,
// unknown entity 404, wrong state 409, business rule 422, scope 403. Anything
// unrecognized is a 500 and gets logged.
func statusForError(err error) int {
	switch {
	case errors.Is(err, workflow.ErrInvalidAmount),
		errors.Is(err, workflow.ErrAmountOutsideProductRange),
		errors.Is(err, workflow.ErrInvalidReviewDecision),
		errors.Is(err, workflow.ErrProductInactive):
		return http.StatusBadRequest

	case errors.Is(err, workflow.ErrNotOwner),
		errors.Is(err, workflow.ErrBranchMismatch),
		errors.Is(err, workflow.ErrBranchScope),
		errors.Is(err, workflow.ErrNotPermitted):
		return http.StatusForbidden

	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound

	case errors.Is(err, workflow.ErrSessionNotActive),
		errors.Is(err, workflow.ErrSessionNotAllocated),
		errors.Is(err, workflow.ErrSessionNotClosed),
		errors.Is(err, workflow.ErrLoanNotActive),
		errors.Is(err, workflow.ErrLoanNotDraft),
		errors.Is(err, workflow.ErrLoanNotSubmitted),
		errors.Is(err, workflow.ErrLoanNotApproved),
		errors.Is(err, workflow.ErrAccountNotActive),
		errors.Is(err, workflow.ErrWithdrawalNotPending):
		return http.StatusConflict

	case errors.Is(err, workflow.ErrInsufficientDrawerCash),
		errors.Is(err, workflow.ErrAlreadyReversed),
		errors.Is(err, workflow.ErrOverpaymentRejected),
		errors.Is(err, workflow.ErrBelowMinimumOpening),
		errors.Is(err, workflow.ErrBelowMinimumBalance),
		errors.Is(err, workflow.ErrNonZeroBalance),
		errors.Is(err, workflow.ErrActiveLoanExists),
		errors.Is(err, workflow.ErrClientNotActive),
		errors.Is(err, workflow.ErrKYCNotApproved),
		errors.Is(err, workflow.ErrMissingDocuments),
		errors.Is(err, workflow.ErrNoActiveSession),
		errors.Is(err, workflow.ErrSessionAlreadyOpen):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondBindError reports request-binding failures, exposing per-field
// validation tags when the failure came from struct validation.
func respondBindError(c *gin.Context, err error) {
	if fields := utils.ProcessValidationErrors(err); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func respondError(c *gin.Context, module string, funcName string, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		config.LogError(config.GetLogger(), module, funcName, c.FullPath(), nil, err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
