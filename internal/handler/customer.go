package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/ideaforge/internal/service"
)

// CustomerHandler serves the per-idea CRM: customers, bulk e-mail,
// scheduled WhatsApp messages and the e-mail rewriting helper.
type CustomerHandler struct {
	customers *service.CustomerService
	logger    *slog.Logger
}

func NewCustomerHandler(customers *service.CustomerService, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{customers: customers, logger: logger}
}

// HTTP: GET /api/ideas/{ideaID}/customers
func (h *CustomerHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	customers, err := h.customers.List(r.Context(), userID, chi.URLParam(r, "ideaID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

// HTTP: POST /api/ideas/{ideaID}/customers
func (h *CustomerHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in service.CustomerInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	customer, err := h.customers.Create(r.Context(), userID, chi.URLParam(r, "ideaID"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

// HTTP: GET /api/ideas/{ideaID}/customers/stats
func (h *CustomerHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	stats, err := h.customers.Stats(r.Context(), userID, chi.URLParam(r, "ideaID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HTTP: GET /api/customers/{customerID}
func (h *CustomerHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	customer, err := h.customers.Get(r.Context(), userID, chi.URLParam(r, "customerID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

// HTTP: PUT /api/customers/{customerID}
func (h *CustomerHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var patch service.CustomerPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}

	customer, err := h.customers.Update(r.Context(), userID, chi.URLParam(r, "customerID"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

// HTTP: DELETE /api/customers/{customerID}
func (h *CustomerHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.customers.Delete(r.Context(), userID, chi.URLParam(r, "customerID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSendEmail mails every customer of the idea from the user's SMTP
// account and reports who was reached.
//
// HTTP: POST /api/ideas/{ideaID}/customers/email
// REQUEST BODY: {"subject": "...", "body": "...", "customerIds": ["..."]}
func (h *CustomerHandler) HandleSendEmail(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in service.BulkEmailInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.customers.SendBulkEmail(r.Context(), userID, chi.URLParam(r, "ideaID"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleScheduleWhatsApp queues a message; the dispatcher sends it later.
//
// HTTP: POST /api/customers/{customerID}/whatsapp
// REQUEST BODY: {"message": "Your order is ready"}
func (h *CustomerHandler) HandleScheduleWhatsApp(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in messageRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	msg, err := h.customers.ScheduleWhatsApp(r.Context(), userID, chi.URLParam(r, "customerID"), in.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, msg)
}

// HTTP: GET /api/ideas/{ideaID}/messages
func (h *CustomerHandler) HandleMessages(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	messages, err := h.customers.Messages(r.Context(), userID, chi.URLParam(r, "ideaID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

type improveEmailRequest struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// HTTP: POST /api/email/improve
// REQUEST BODY: {"subject": "...", "content": "..."}
func (h *CustomerHandler) HandleImproveEmail(w http.ResponseWriter, r *http.Request) {
	if _, err := currentUserID(r); err != nil {
		writeError(w, err)
		return
	}
	var in improveEmailRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	improved, err := h.customers.ImproveEmail(r.Context(), in.Subject, in.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, improved)
}
