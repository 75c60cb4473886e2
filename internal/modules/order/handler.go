package order

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Sangeethasankar1020/django-react-ecommerce/internal/modules/auth"
	"github.com/Sangeethasankar1020/django-react-ecommerce/internal/modules/payment"
	"github.com/go-chi/chi/v5"
)

// Handler exposes order HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes mounts the user-facing endpoints. Mount behind auth.Middleware.
// Flat patterns so the static admin and webhook paths can coexist with the
// {id} parameter under different middleware stacks.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Post("/orders/create", h.createOrder)
	r.Post("/orders/create-payment-intent", h.createPaymentIntent)
	r.Get("/orders/payment-status/{intent_id}", h.paymentStatus)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
	r.Get("/orders/{id}/receipt-pdf", h.receiptPDF)
}

// RegisterAdminRoutes mounts the admin endpoints. Mount behind auth.RequireAdmin.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/orders/admin/all", h.adminListOrders)
	r.Put("/orders/admin/{id}/status", h.adminUpdateStatus)
	r.Get("/orders/admin/dashboard-data", h.adminDashboard)
}

// RegisterWebhookRoutes mounts the processor callback. Signed payload, no
// user auth.
func (h *Handler) RegisterWebhookRoutes(r chi.Router, gateway payment.Gateway) {
	r.Post("/orders/stripe-webhook", h.stripeWebhook(gateway))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListUserOrders(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if orders == nil {
		orders = []*Order{}
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	resp, err := h.service.PlaceOrder(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		respond(w, serviceErrorCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, resp)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrder(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	err := h.service.CancelOrder(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, serviceErrorCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "Order cancelled successfully"})
}

func (h *Handler) receiptPDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pdf, err := h.service.ReceiptPDF(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		respond(w, serviceErrorCode(err), map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="order_%s_receipt.pdf"`, id))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

func (h *Handler) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req CreateIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	intent, err := h.service.CreatePaymentIntent(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		respond(w, serviceErrorCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{
		"client_secret":     intent.ClientSecret,
		"payment_intent_id": intent.ID,
	})
}

func (h *Handler) paymentStatus(w http.ResponseWriter, r *http.Request) {
	intent, err := h.service.PaymentStatus(r.Context(), chi.URLParam(r, "intent_id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"status":             intent.Status,
		"amount":             intent.Amount,
		"currency":           intent.Currency,
		"last_payment_error": intent.LastError,
	})
}

func (h *Handler) stripeWebhook(gateway payment.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(r.Body)
		if err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}

		event, err := gateway.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
		if err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		if err := h.service.HandleWebhookEvent(r.Context(), event); err != nil {
			respond(w, http.StatusInternalServerError, map[string]string{"error": "webhook processing failed"})
			return
		}
		respond(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

// ── Admin ─────────────────────────────────────────────────────────────────────

func (h *Handler) adminListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListAllOrders(r.Context())
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if orders == nil {
		orders = []*Order{}
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) adminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	o, err := h.service.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		respond(w, serviceErrorCode(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) adminDashboard(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.DashboardData(r.Context())
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, data)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// serviceErrorCode maps service error messages to HTTP statuses: absent or
// foreign orders are 404, validation errors and processor rejections
// (surfaced with the gateway's "stripe:" prefix) are 400.
func serviceErrorCode(err error) int {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		return http.StatusNotFound
	case strings.Contains(msg, "required"),
		strings.Contains(msg, "invalid"),
		strings.Contains(msg, "unknown"),
		strings.Contains(msg, "at least one"),
		strings.Contains(msg, "must be"),
		strings.Contains(msg, "unavailable"),
		strings.Contains(msg, "insufficient stock"),
		strings.Contains(msg, "cannot be cancelled"),
		strings.Contains(msg, "not completed"),
		strings.Contains(msg, "does not match"),
		strings.Contains(msg, "verification failed"),
		strings.Contains(msg, "refund failed"),
		strings.Contains(msg, "stripe:"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
