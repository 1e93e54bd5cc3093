package notifica

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Notifier envia avisos de eventos da plataforma para canais externos.
type Notifier interface {
	Notify(ctx context.Context, msg Mensagem) error
}

// Mensagem descreve um aviso a ser publicado.
type Mensagem struct {
	Titulo string
	Texto  string
	Evento string
}

// WebhookNotifier publica avisos em um webhook HTTP (Slack-compatível).
type WebhookNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewWebhookNotifier devolve nil quando não há webhook configurado; os
// chamadores tratam nil como notificação desligada.
func NewWebhookNotifier(webhookURL string) *WebhookNotifier {
	if webhookURL == "" {
		return nil
	}
	return &WebhookNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, msg Mensagem) error {
	if n == nil || n.webhookURL == "" {
		return errors.New("webhook não configurado")
	}

	payload := map[string]any{
		"text": formatMessage(msg),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook respondeu %d", resp.StatusCode)
	}
	return nil
}

func formatMessage(msg Mensagem) string {
	if msg.Evento == "" {
		return fmt.Sprintf("*%s*\n%s", msg.Titulo, msg.Texto)
	}
	return fmt.Sprintf("*%s* [%s]\n%s", msg.Titulo, msg.Evento, msg.Texto)
}
