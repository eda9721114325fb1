package billing_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/dalemusser/taskhive/internal/app/features/billing"
	uierrors "github.com/dalemusser/taskhive/internal/app/features/errors"
	userstore "github.com/dalemusser/taskhive/internal/app/store/users"
	"github.com/dalemusser/taskhive/internal/domain/models"
	"github.com/dalemusser/taskhive/internal/testutil"
	"go.uber.org/zap"
)

const testSecret = "test-key-secret"

func sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestHandler(t *testing.T, gatewayURL string) (*billing.Handler, *userstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	users := userstore.New(db)
	gw := billing.NewGateway("test-key-id", testSecret, gatewayURL)
	errLog := uierrors.NewErrorLogger(logger)
	return billing.NewHandler(users, gw, errLog, logger), users
}

func TestVerifySignature(t *testing.T) {
	gw := billing.NewGateway("k", testSecret, "")

	if !gw.VerifySignature("order_1", "pay_1", sign("order_1", "pay_1")) {
		t.Error("valid signature rejected")
	}
	if gw.VerifySignature("order_1", "pay_1", sign("order_1", "pay_2")) {
		t.Error("signature for a different payment accepted")
	}
	if gw.VerifySignature("order_1", "pay_1", "not-hex-garbage") {
		t.Error("garbage signature accepted")
	}
	if gw.VerifySignature("", "", "") {
		t.Error("empty fields accepted")
	}
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		user, _, ok := r.BasicAuth()
		if !ok || user != "test-key-id" {
			t.Error("expected basic auth with key id")
		}

		var body struct {
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
			Receipt  string `json:"receipt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode order body: %v", err)
		}
		if body.Receipt == "" {
			t.Error("expected a generated receipt")
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":       "order_123",
			"amount":   body.Amount,
			"currency": body.Currency,
			"receipt":  body.Receipt,
			"status":   "created",
		})
	}))
	defer srv.Close()

	gw := billing.NewGateway("test-key-id", testSecret, srv.URL)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	order, err := gw.CreateOrder(ctx, 49900, "INR")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.ID != "order_123" {
		t.Errorf("order id: got %q", order.ID)
	}
	if order.Amount != 49900 {
		t.Errorf("amount: got %d", order.Amount)
	}
}

func TestHandleVerify_ValidSignatureUpgradesPlan(t *testing.T) {
	handler, users := newTestHandler(t, "")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := users.Create(ctx, "Ada", "ada@example.com", "pw"); err != nil {
		t.Fatalf("Create user: %v", err)
	}

	form := url.Values{
		"order_id":   {"order_1"},
		"payment_id": {"pay_1"},
		"signature":  {sign("order_1", "pay_1")},
	}
	req := testutil.NewFormRequest("/billing/verify", form, testutil.FreeUser("ada@example.com"))
	rec := testutil.NewRecorder()

	handler.HandleVerify(rec, req)

	rec.AssertRedirect(t, "/tasks")

	u, err := users.FindByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if u.Plan != models.PlanPaid {
		t.Errorf("plan: got %q, want %q", u.Plan, models.PlanPaid)
	}
}

func TestHandleVerify_BadSignatureRejected(t *testing.T) {
	handler, users := newTestHandler(t, "")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := users.Create(ctx, "Ada", "ada@example.com", "pw"); err != nil {
		t.Fatalf("Create user: %v", err)
	}

	form := url.Values{
		"order_id":   {"order_1"},
		"payment_id": {"pay_1"},
		"signature":  {"forged"},
	}
	req := testutil.NewFormRequest("/billing/verify", form, testutil.FreeUser("ada@example.com"))
	rec := testutil.NewRecorder()

	// The denial page renders a template; templates are not initialized here.
	func() {
		defer func() { _ = recover() }()
		handler.HandleVerify(rec, req)
	}()

	if rec.Code == http.StatusSeeOther {
		t.Error("forged signature must not redirect to tasks")
	}

	u, err := users.FindByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if u.Plan != models.PlanFree {
		t.Errorf("plan must stay free after rejected payment, got %q", u.Plan)
	}
}

func TestHandleVerify_Idempotent(t *testing.T) {
	handler, users := newTestHandler(t, "")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := users.Create(ctx, "Ada", "ada@example.com", "pw"); err != nil {
		t.Fatalf("Create user: %v", err)
	}

	form := url.Values{
		"order_id":   {"order_1"},
		"payment_id": {"pay_1"},
		"signature":  {sign("order_1", "pay_1")},
	}

	for i := 0; i < 2; i++ {
		req := testutil.NewFormRequest("/billing/verify", form, testutil.FreeUser("ada@example.com"))
		rec := testutil.NewRecorder()
		handler.HandleVerify(rec, req)
		rec.AssertRedirect(t, "/tasks")
	}

	u, err := users.FindByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if u.Plan != models.PlanPaid {
		t.Errorf("plan: got %q, want %q", u.Plan, models.PlanPaid)
	}
}

func TestHandleCreateOrder_Unconfigured(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	users := userstore.New(db)
	gw := billing.NewGateway("", "", "")
	errLog := uierrors.NewErrorLogger(logger)
	handler := billing.NewHandler(users, gw, errLog, logger)

	req := testutil.NewAuthenticatedRequest("POST", "/billing/order", testutil.FreeUser("ada@example.com"))
	rec := testutil.NewRecorder()

	handler.HandleCreateOrder(rec, req)

	rec.AssertStatus(t, http.StatusServiceUnavailable)
}
