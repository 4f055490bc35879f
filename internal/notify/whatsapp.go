package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultAPIBase = "https://graph.facebook.com/v19.0"

var ErrMissingCredentials = errors.New("whatsapp api credentials missing")

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// WhatsAppClient is a thin wrapper over the WhatsApp Cloud API text-message
// endpoint.
type WhatsAppClient struct {
	Token   string
	PhoneID string
	APIBase string
	Client  HTTPClient
}

func NewWhatsAppClient(token, phoneID string) *WhatsAppClient {
	return &WhatsAppClient{
		Token:   token,
		PhoneID: phoneID,
		APIBase: defaultAPIBase,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type textPayload struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

func (c *WhatsAppClient) Send(ctx context.Context, to, message string) error {
	if c.Token == "" || c.PhoneID == "" {
		return ErrMissingCredentials
	}
	payload := textPayload{MessagingProduct: "whatsapp", To: to, Type: "text"}
	payload.Text.Body = message
	body, _ := json.Marshal(payload)

	url := fmt.Sprintf("%s/%s/messages", c.APIBase, c.PhoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("whatsapp api returned %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// InboundMessage is one text message extracted from a webhook delivery.
type InboundMessage struct {
	From string
	Text string
}

type webhookEnvelope struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From string `json:"from"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ParseWebhook extracts inbound text messages from a webhook POST body.
// Non-text messages and unknown payloads are ignored.
func ParseWebhook(body []byte) []InboundMessage {
	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	if envelope.Object != "whatsapp_business_account" {
		return nil
	}
	var messages []InboundMessage
	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" {
					continue
				}
				messages = append(messages, InboundMessage{From: msg.From, Text: msg.Text.Body})
			}
		}
	}
	return messages
}

// AutoReply maps an inbound text to the fixed-rule bot answer.
func AutoReply(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "hello") || strings.Contains(lower, "hi ") || lower == "hi" ||
		strings.Contains(lower, "bonjour") || strings.Contains(lower, "salut"):
		return "Hello! How can we help you today?"
	case strings.Contains(lower, "order") || strings.Contains(lower, "commande"):
		return "To place an order, visit our store or tell us what you would like!"
	default:
		return "Thanks for your message! Someone will get back to you shortly."
	}
}

// VerifyChallenge implements the provider's webhook handshake: echo the
// challenge when the mode and verify token match.
func VerifyChallenge(verifyToken, mode, token, challenge string) (string, bool) {
	if mode == "subscribe" && token != "" && token == verifyToken {
		return challenge, true
	}
	return "", false
}
