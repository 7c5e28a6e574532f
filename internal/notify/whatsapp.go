package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sakif/ideaforge/internal/model"
)

// WhatsApp sends text messages through the WhatsApp Cloud API.
type WhatsApp struct {
	client        *http.Client
	apiURL        string
	token         string
	phoneNumberID string
}

var _ Sender = (*WhatsApp)(nil)

func NewWhatsApp(apiURL, token, phoneNumberID string) *WhatsApp {
	return &WhatsApp{
		client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		apiURL:        strings.TrimRight(apiURL, "/"),
		token:         token,
		phoneNumberID: phoneNumberID,
	}
}

type whatsAppText struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

func (w *WhatsApp) Send(ctx context.Context, msg model.ScheduledMessage) error {
	payload := whatsAppText{MessagingProduct: "whatsapp", To: normalizePhone(msg.Recipient), Type: "text"}
	payload.Text.Body = msg.Body

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/messages", w.apiURL, w.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("whatsapp: creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

// normalizePhone keeps only the digits, which is the form the Cloud API
// expects ("+55 (11) 99999-0000" becomes "5511999990000").
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LogSender only logs messages. It is used when WhatsApp is not configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(_ context.Context, msg model.ScheduledMessage) error {
	s.Logger.Info("scheduled message (not delivered, no channel configured)",
		"id", msg.ID, "channel", msg.Channel, "recipient", msg.Recipient, "chars", len(msg.Body))
	return nil
}
