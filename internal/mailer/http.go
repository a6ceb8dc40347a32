package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultBaseURL = "https://api.resend.com"

// HTTPMailer posts emails to a Resend-style HTTP API.
type HTTPMailer struct {
	apiKey      string
	from        string
	frontendURL string
	baseURL     string
	client      *http.Client
}

// NewHTTPMailer constructs a mailer. frontendURL is embedded in the email
// links so the recipient lands on the right confirmation form. No request
// timeout is set; the caller's context bounds the send.
func NewHTTPMailer(apiKey, from, frontendURL, baseURL string) *HTTPMailer {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &HTTPMailer{
		apiKey:      apiKey,
		from:        from,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (m *HTTPMailer) SendConfirmationCode(ctx context.Context, toEmail, name, code string) error {
	html := fmt.Sprintf(`<p>Hola, %s. Has creado tu cuenta en TaskHive. Ya casi está todo listo, sólo debes confirmar tu cuenta</p>
<p>Visita el siguiente enlace:</p>
<a href="%s/auth/confirm-account">Confirmar cuenta</a>
<p>E ingresa el código: <b>%s</b></p>
<p>Este token expira en 10 minutos</p>`, name, m.frontendURL, code)

	return m.send(ctx, toEmail, "TaskHive - Confirmación de cuenta", html)
}

func (m *HTTPMailer) SendPasswordResetCode(ctx context.Context, toEmail, name, code string) error {
	html := fmt.Sprintf(`<p>Hola, %s. Has solicitado reestablecer tu password:</p>
<a href="%s/auth/new-password">Reestablecer password</a>
<p>E ingresa el código: <b>%s</b></p>
<p>Este token expira en 10 minutos</p>`, name, m.frontendURL, code)

	return m.send(ctx, toEmail, "TaskHive - Reestablece tu password", html)
}

func (m *HTTPMailer) send(ctx context.Context, toEmail, subject, html string) error {
	body, err := json.Marshal(sendRequest{
		From:    m.from,
		To:      []string{toEmail},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mailer: unexpected status %d", resp.StatusCode)
	}
	return nil
}
