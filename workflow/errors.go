package workflow

import "errors"

// Failure taxonomy. Every engine operation returns one of these (or a wrapped
// DB error); nothing here is fatal to the process and every failure leaves all
// entities unchanged.

// Validation: rejected before any mutation.
var (
	ErrInvalidAmount             = errors.New("amount must be greater than zero")
	ErrAmountOutsideProductRange = errors.New("principal is outside the product's min/max range")
	ErrInvalidReviewDecision     = errors.New("review decision must be APPROVE, REJECT or REQUEST_CHANGES")
	ErrProductInactive           = errors.New("product is not active")
)

// State machine: entity not in the required status for the transition.
var (
	ErrSessionNotActive     = errors.New("teller session is not ACTIVE")
	ErrSessionNotAllocated  = errors.New("only ALLOCATED sessions can be confirmed")
	ErrSessionNotClosed     = errors.New("only CLOSED sessions can be reviewed")
	ErrLoanNotActive        = errors.New("loan is not ACTIVE")
	ErrLoanNotDraft         = errors.New("loan is not in an editable draft state")
	ErrLoanNotSubmitted     = errors.New("loan is not SUBMITTED")
	ErrLoanNotApproved      = errors.New("loan is not APPROVED")
	ErrAccountNotActive     = errors.New("savings account is not ACTIVE")
	ErrWithdrawalNotPending = errors.New("withdrawal is not PENDING")
)

// Invariant: rejected after computation, before persistence.
var (
	ErrInsufficientDrawerCash = errors.New("insufficient drawer cash for this OUTFLOW transaction")
	ErrAlreadyReversed        = errors.New("entry has already been reversed or is itself a reversal")
	ErrOverpaymentRejected    = errors.New("payment exceeds outstanding balance of the loan")
	ErrBelowMinimumOpening    = errors.New("opening deposit is below the product minimum")
	ErrBelowMinimumBalance    = errors.New("withdrawal would breach minimum balance")
	ErrNonZeroBalance         = errors.New("account can only be closed when balance is zero")
	ErrActiveLoanExists       = errors.New("client already has a loan in progress")
	ErrClientNotActive        = errors.New("client is not ACTIVE")
	ErrKYCNotApproved         = errors.New("client must have APPROVED KYC")
	ErrMissingDocuments       = errors.New("mandatory loan documents are missing")
	ErrNoActiveSession        = errors.New("no ACTIVE teller session; start a session first")
	ErrSessionAlreadyOpen     = errors.New("cashier already has a session that is not CLOSED")
)

// Ownership/authorization: distinct from validation so callers can map to 403.
var (
	ErrNotOwner       = errors.New("actor is not the cashier for this session")
	ErrBranchMismatch = errors.New("session and branch mismatch")
	ErrBranchScope    = errors.New("actor may not operate outside their branch")
	ErrNotPermitted   = errors.New("actor role lacks the required capability")
)
