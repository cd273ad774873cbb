package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/mfi_backend/workflow"
	"github.com/gin-gonic/gin"
)

func bindBody(t *testing.T, body string, dest interface{}) error {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c.ShouldBindJSON(dest)
}

// The entity id on these inputs comes from the URL path and is assigned after
// binding, so a body that omits it must still bind.
func TestPathScopedInputs_BindWithoutEntityId(t *testing.T) {
	var movement workflow.SavingsMovementInput
	if err := bindBody(t, `{"amount":"100.00","payment_method":"CASH"}`, &movement); err != nil {
		t.Fatalf("movement body without account_id should bind: %v", err)
	}
	if movement.AccountId != 0 {
		t.Fatalf("account id should stay zero until the handler assigns it, got %d", movement.AccountId)
	}

	var repayment workflow.RepaymentInput
	if err := bindBody(t, `{"amount":"50.00","payment_method":"CASH"}`, &repayment); err != nil {
		t.Fatalf("repayment body without loan_id should bind: %v", err)
	}

	var review workflow.ReviewLoanInput
	if err := bindBody(t, `{"decision":"APPROVE"}`, &review); err != nil {
		t.Fatalf("review body without loan_id should bind: %v", err)
	}

	var disburse workflow.DisburseLoanInput
	if err := bindBody(t, `{"disbursement_method":"CASH"}`, &disburse); err != nil {
		t.Fatalf("disburse body without loan_id should bind: %v", err)
	}

	var attach workflow.AttachLoanDocumentInput
	if err := bindBody(t, `{"file_ref":"uploads/nrc-front.png"}`, &attach); err != nil {
		t.Fatalf("document body without loan_id should bind: %v", err)
	}
}

func TestPathScopedInputs_BodyFieldsStillRequired(t *testing.T) {
	var movement workflow.SavingsMovementInput
	if err := bindBody(t, `{"payment_method":"CASH"}`, &movement); err == nil {
		t.Fatal("movement body without amount should fail binding")
	}

	var review workflow.ReviewLoanInput
	if err := bindBody(t, `{"note":"looks fine"}`, &review); err == nil {
		t.Fatal("review body without decision should fail binding")
	}

	var disburse workflow.DisburseLoanInput
	if err := bindBody(t, `{}`, &disburse); err == nil {
		t.Fatal("disburse body without method should fail binding")
	}
}
