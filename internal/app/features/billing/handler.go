// internal/app/features/billing/handler.go
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/taskhive/internal/app/features/errors"
	userstore "github.com/dalemusser/taskhive/internal/app/store/users"
	"github.com/dalemusser/taskhive/internal/app/system/authz"
	"github.com/dalemusser/taskhive/internal/app/system/timeouts"
	"github.com/dalemusser/taskhive/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Upgrade price: the paid plan is a one-time purchase.
const (
	PlanAmount   = 49900 // minor units (paise)
	PlanCurrency = "INR"
)

type Handler struct {
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
	Users   *userstore.Store
	Gateway *Gateway
}

func NewHandler(users *userstore.Store, gateway *Gateway, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:     logger,
		ErrLog:  errLog,
		Users:   users,
		Gateway: gateway,
	}
}

type upgradePageData struct {
	viewdata.BaseVM
	KeyID    string
	Amount   int64
	Currency string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /billing – upgrade page                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeUpgrade(w http.ResponseWriter, r *http.Request) {
	if _, _, _, ok := authz.UserCtx(r); !ok {
		uierrors.RenderUnauthorized(w, r, "")
		return
	}

	data := upgradePageData{
		BaseVM:   viewdata.NewBaseVM(r, "Upgrade", "/tasks"),
		KeyID:    h.Gateway.KeyID,
		Amount:   PlanAmount,
		Currency: PlanCurrency,
	}

	templates.Render(w, r, "billing_upgrade", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /billing/order – create a gateway order                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if _, _, _, ok := authz.UserCtx(r); !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if !h.Gateway.Enabled() {
		http.Error(w, "payments not configured", http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	order, err := h.Gateway.CreateOrder(ctx, PlanAmount, PlanCurrency)
	if err != nil {
		h.Log.Error("create gateway order failed", zap.Error(err))
		http.Error(w, "could not create order", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"order_id": order.ID,
		"amount":   order.Amount,
		"currency": order.Currency,
		"key_id":   h.Gateway.KeyID,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /billing/verify – verify the checkout callback, apply the payment      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	email, _, _, ok := authz.UserCtx(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/billing")
		return
	}

	orderID := r.FormValue("order_id")
	paymentID := r.FormValue("payment_id")
	signature := r.FormValue("signature")

	if !h.Gateway.VerifySignature(orderID, paymentID, signature) {
		h.Log.Warn("payment signature rejected",
			zap.String("email", email),
			zap.String("order_id", orderID))
		uierrors.RenderForbidden(w, r, "Payment verification failed.", "/billing")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	// Applying a payment twice is a no-op; the plan only moves free→paid.
	err := h.Users.MarkPaid(ctx, email)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB mark paid", err, "A server error occurred.", "/billing")
		return
	}

	h.Log.Info("payment applied",
		zap.String("email", email),
		zap.String("order_id", orderID),
		zap.String("payment_id", paymentID))

	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}
