package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seifenwerk/orderdesk/internal/application/conversion"
	"github.com/seifenwerk/orderdesk/internal/application/paymentsync"
	domaininquiry "github.com/seifenwerk/orderdesk/internal/domain/inquiry"
	domaininvoice "github.com/seifenwerk/orderdesk/internal/domain/invoice"
	domainorder "github.com/seifenwerk/orderdesk/internal/domain/order"
	domainpayment "github.com/seifenwerk/orderdesk/internal/domain/payment"
)

type Handler struct {
	pipeline    *conversion.Pipeline
	coordinator *paymentsync.Coordinator
	orders      domainorder.Repository
	processor   domainpayment.Processor
}

func NewHandler(pipeline *conversion.Pipeline, coordinator *paymentsync.Coordinator, orders domainorder.Repository, processor domainpayment.Processor) *Handler {
	return &Handler{
		pipeline:    pipeline,
		coordinator: coordinator,
		orders:      orders,
		processor:   processor,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /inquiries", h.handleSubmitInquiry)
	mux.HandleFunc("POST /inquiries/{id}/accept", h.handleAcceptInquiry)
	mux.HandleFunc("POST /inquiries/{id}/reject", h.handleRejectInquiry)
	mux.HandleFunc("POST /orders/{id}/payment", h.handleCreatePayment)
	mux.HandleFunc("POST /orders/{id}/capture", h.handleCaptureOrder)
	mux.HandleFunc("POST /payments/webhook", h.handlePaymentWebhook)
	mux.HandleFunc("POST /invoices/{id}/pay", h.handleMarkInvoicePaid)
	mux.HandleFunc("POST /orders/{id}/repair", h.handleRepairOrder)
	mux.HandleFunc("GET /orders/{id}", h.handleGetOrder)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

type lineItemRequest struct {
	ProductRef string  `json:"product_ref"`
	Name       string  `json:"name"`
	ImageURL   string  `json:"image_url"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
}

type addressRequest struct {
	Name       string `json:"name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type submitInquiryRequest struct {
	CustomerRef     string            `json:"customer_ref"`
	CustomerName    string            `json:"customer_name"`
	CustomerEmail   string            `json:"customer_email"`
	Items           []lineItemRequest `json:"items"`
	BillingAddress  *addressRequest   `json:"billing_address"`
	ShippingAddress *addressRequest   `json:"shipping_address"`
}

func (h *Handler) handleSubmitInquiry(w http.ResponseWriter, r *http.Request) {
	var req submitInquiryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	items := make([]domaininquiry.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domaininquiry.LineItem{
			ProductRef: it.ProductRef,
			Name:       it.Name,
			ImageURL:   it.ImageURL,
			Quantity:   it.Quantity,
			UnitPrice:  decimal.NewFromFloat(it.UnitPrice),
		})
	}

	q, err := h.pipeline.Submit(r.Context(), conversion.SubmitInput{
		CustomerRef:     req.CustomerRef,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		Items:           items,
		BillingAddress:  toInquiryAddress(req.BillingAddress),
		ShippingAddress: toInquiryAddress(req.ShippingAddress),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"inquiry_id": q.ID,
		"status":     string(q.Status),
	})
}

type operatorDecisionRequest struct {
	Message        string `json:"message"`
	Actor          string `json:"actor"`
	ConvertToOrder bool   `json:"convert_to_order"`
}

type acceptInquiryResponse struct {
	InquiryID     string   `json:"inquiry_id"`
	OrderID       string   `json:"order_id,omitempty"`
	OrderNumber   string   `json:"order_number,omitempty"`
	InvoiceNumber string   `json:"invoice_number,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

func (h *Handler) handleAcceptInquiry(w http.ResponseWriter, r *http.Request) {
	var req operatorDecisionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.pipeline.Accept(r.Context(), conversion.AcceptInput{
		InquiryID:      r.PathValue("id"),
		Message:        req.Message,
		Actor:          req.Actor,
		ConvertToOrder: req.ConvertToOrder,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, acceptInquiryResponse{
		InquiryID:     result.InquiryID,
		OrderID:       result.OrderID,
		OrderNumber:   result.OrderNumber,
		InvoiceNumber: result.InvoiceNumber,
		Warnings:      result.Warnings,
	})
}

func (h *Handler) handleRejectInquiry(w http.ResponseWriter, r *http.Request) {
	var req operatorDecisionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err := h.pipeline.Reject(r.Context(), conversion.RejectInput{
		InquiryID: r.PathValue("id"),
		Message:   req.Message,
		Actor:     req.Actor,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(domaininquiry.StatusRejected)})
}

// handleCreatePayment registers the order with the payment processor and
// returns the approval URL the customer is redirected to.
func (h *Handler) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	created, err := h.processor.CreatePayment(r.Context(), domainpayment.OrderSummary{
		OrderID:  o.ID,
		Amount:   o.Totals.GrandTotal,
		Currency: "EUR",
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	o.Payment.ProcessorOrderID = created.ProcessorOrderID
	if err := h.orders.Update(r.Context(), o); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"processor_order_id": created.ProcessorOrderID,
		"approval_url":       created.ApprovalURL,
	})
}

// handleCaptureOrder captures the processor payment and feeds the result
// through the payment-sync coordinator.
func (h *Handler) handleCaptureOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if o.Payment.ProcessorOrderID == "" {
		writeError(w, http.StatusBadRequest, errors.New("order has no processor payment"))
		return
	}

	captured, err := h.processor.CaptureOrder(r.Context(), o.Payment.ProcessorOrderID)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	result, err := h.coordinator.ApplyCapture(r.Context(), paymentsync.Capture{
		OrderID:          o.ID,
		ProcessorOrderID: o.Payment.ProcessorOrderID,
		TransactionID:    captured.TransactionID,
		Status:           captured.Status,
		At:               time.Now(),
	})
	if err != nil {
		if errors.Is(err, paymentsync.ErrCaptureNotCompleted) {
			writeJSON(w, http.StatusAccepted, map[string]string{"status": string(captured.Status)})
			return
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"order_id": result.OrderID,
		"applied":  result.Applied,
		"status":   string(captured.Status),
	})
}

type paymentWebhookRequest struct {
	OrderID          string `json:"order_id"`
	ProcessorOrderID string `json:"processor_order_id"`
	TransactionID    string `json:"transaction_id"`
	Status           string `json:"status"`
}

func (h *Handler) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	var req paymentWebhookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.coordinator.ApplyCapture(r.Context(), paymentsync.Capture{
		OrderID:          req.OrderID,
		ProcessorOrderID: req.ProcessorOrderID,
		TransactionID:    req.TransactionID,
		Status:           domainpayment.CaptureStatus(req.Status),
		At:               time.Now(),
	})
	if err != nil {
		if errors.Is(err, paymentsync.ErrCaptureNotCompleted) {
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "ignored"})
			return
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"order_id": result.OrderID,
		"applied":  result.Applied,
	})
}

func (h *Handler) handleMarkInvoicePaid(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Actor string `json:"actor"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.coordinator.MarkInvoicePaid(r.Context(), r.PathValue("id"), req.Actor); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(domaininvoice.StatusPaid)})
}

func (h *Handler) handleRepairOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.Repair(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "repaired"})
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func toInquiryAddress(a *addressRequest) *domaininquiry.Address {
	if a == nil {
		return nil
	}
	return &domaininquiry.Address{
		Name:       a.Name,
		Street:     a.Street,
		City:       a.City,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domaininquiry.ErrNotFound),
		errors.Is(err, domainorder.ErrNotFound),
		errors.Is(err, domaininvoice.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domaininquiry.ErrAlreadyProcessed):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domaininquiry.ErrNoItems),
		errors.Is(err, domainorder.ErrNoItems),
		errors.Is(err, domainorder.ErrInvalidActor):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
