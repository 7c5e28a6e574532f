package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ideaforge/internal/handler"
	"github.com/sakif/ideaforge/internal/llm"
	"github.com/sakif/ideaforge/internal/model"
	"github.com/sakif/ideaforge/internal/service"
)

func TestCustomerHandler(t *testing.T) {
	env := newTestEnv(t)
	svc := service.NewCustomerService(env.db, env.db, env.db, env.db, nopMailer{}, env.ai, testLogger())
	h := handler.NewCustomerHandler(svc, testLogger())
	owner := env.register(t, "owner")
	idea := env.idea(t, owner.ID)
	ideaParams := map[string]string{"ideaID": idea.ID}

	rr := httptest.NewRecorder()
	h.HandleCreate(rr, newRequest(http.MethodPost, "/", `{"name":"Ana","phone":"+351 912 345 678"}`, owner.ID, ideaParams))
	require.Equal(t, http.StatusCreated, rr.Code)
	customer := decodeBody[model.Customer](t, rr)
	customerParams := map[string]string{"customerID": customer.ID}

	t.Run("stats", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleStats(rr, newRequest(http.MethodGet, "/", "", owner.ID, ideaParams))

		require.Equal(t, http.StatusOK, rr.Code)
		stats := decodeBody[model.CustomerStats](t, rr)
		assert.Equal(t, 1, stats.Total)
		assert.Equal(t, 1, stats.ByStatus[model.DefaultCustomerStatus])
	})

	t.Run("bulk e-mail without recipients", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleSendEmail(rr, newRequest(http.MethodPost, "/", `{"subject":"Hi","body":"News"}`, owner.ID, ideaParams))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "customerIds", decodeBody[handler.ErrorResponse](t, rr).Field)
	})

	t.Run("bulk e-mail without SMTP settings", func(t *testing.T) {
		body := `{"subject":"Hi","body":"News","customerIds":["` + customer.ID + `"]}`
		rr := httptest.NewRecorder()
		h.HandleSendEmail(rr, newRequest(http.MethodPost, "/", body, owner.ID, ideaParams))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "smtp", decodeBody[handler.ErrorResponse](t, rr).Field)
	})

	t.Run("bulk e-mail to selected customers", func(t *testing.T) {
		owner.EmailForSending = "shop@example.com"
		owner.EmailPassword = "app-pass"
		owner.SMTPServer = "smtp.example.com"
		owner.SMTPPort = 587
		require.NoError(t, env.db.UpdateUser(context.Background(), owner))

		rr := httptest.NewRecorder()
		h.HandleCreate(rr, newRequest(http.MethodPost, "/", `{"name":"Bia","email":"bia@example.com"}`, owner.ID, ideaParams))
		require.Equal(t, http.StatusCreated, rr.Code)
		bia := decodeBody[model.Customer](t, rr)

		body := `{"subject":"Hi","body":"News","customerIds":["` + bia.ID + `","` + customer.ID + `"]}`
		rr = httptest.NewRecorder()
		h.HandleSendEmail(rr, newRequest(http.MethodPost, "/", body, owner.ID, ideaParams))

		require.Equal(t, http.StatusOK, rr.Code)
		res := decodeBody[service.BulkEmailResult](t, rr)
		assert.Equal(t, []string{"bia@example.com"}, res.Sent)
		assert.Equal(t, []string{"Ana"}, res.Skipped)
		assert.Empty(t, res.Failed)
	})

	t.Run("schedule whatsapp", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleScheduleWhatsApp(rr, newRequest(http.MethodPost, "/", `{"message":"Order ready"}`, owner.ID, customerParams))

		require.Equal(t, http.StatusAccepted, rr.Code)
		msg := decodeBody[model.ScheduledMessage](t, rr)
		assert.Equal(t, model.MessagePending, msg.Status)

		rr = httptest.NewRecorder()
		h.HandleMessages(rr, newRequest(http.MethodGet, "/", "", owner.ID, ideaParams))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, decodeBody[[]model.ScheduledMessage](t, rr), 1)
	})

	t.Run("improve e-mail", func(t *testing.T) {
		env.llm.text[llm.PromptImproveEmail] = "Subject: Fresh bread\n\nContent: Come and taste it."

		rr := httptest.NewRecorder()
		h.HandleImproveEmail(rr, newRequest(http.MethodPost, "/", `{"subject":"bread","content":"we have bread"}`, owner.ID, nil))

		require.Equal(t, http.StatusOK, rr.Code)
		out := decodeBody[service.ImprovedEmail](t, rr)
		assert.Equal(t, "Fresh bread", out.Subject)
		assert.Equal(t, "Come and taste it.", out.Content)
	})

	t.Run("delete", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleDelete(rr, newRequest(http.MethodDelete, "/", "", owner.ID, customerParams))
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = httptest.NewRecorder()
		h.HandleGet(rr, newRequest(http.MethodGet, "/", "", owner.ID, customerParams))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
