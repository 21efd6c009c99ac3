package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const semaphoreURL = "https://api.semaphore.co/api/v4/messages"

// SemaphoreSender sends SMS through the Semaphore API (Philippines). The
// provider accepts form-encoded POSTs and returns a list of message results.
type SemaphoreSender struct {
	APIKey     string
	SenderName string
	Client     *http.Client
}

func NewSemaphoreSender(apiKey, senderName string) *SemaphoreSender {
	return &SemaphoreSender{
		APIKey:     apiKey,
		SenderName: senderName,
		Client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SemaphoreSender) Send(ctx context.Context, phoneNumber, message string) Result {
	if s.APIKey == "" {
		return Result{Provider: "semaphore", Error: "SMS service not configured: missing SMS_API_KEY", Timestamp: time.Now()}
	}

	form := url.Values{
		"apikey":  {s.APIKey},
		"number":  {NormalizePhoneNumber(phoneNumber)},
		"message": {message},
	}
	if sender := strings.TrimSpace(s.SenderName); sender != "" {
		form.Set("sendername", sender)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, semaphoreURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{Provider: "semaphore", Error: err.Error(), Timestamp: time.Now()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.Client.Do(req)
	if err != nil {
		logrus.WithError(err).Error("Semaphore SMS request failed")
		return Result{Provider: "semaphore", Error: err.Error(), Timestamp: time.Now()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Provider: "semaphore", Error: err.Error(), Timestamp: time.Now()}
	}
	if resp.StatusCode >= 300 {
		return Result{
			Provider:  "semaphore",
			Error:     fmt.Sprintf("provider returned HTTP %d", resp.StatusCode),
			Timestamp: time.Now(),
		}
	}

	return parseSemaphoreResponse(body)
}

// parseSemaphoreResponse interprets the provider payload, which may be a
// list of message objects or a single object. Accepted/queued states count
// as success: the message was taken by the provider.
func parseSemaphoreResponse(body []byte) Result {
	res := Result{Provider: "semaphore", Timestamp: time.Now()}

	var items []map[string]interface{}
	if err := json.Unmarshal(body, &items); err != nil {
		var single map[string]interface{}
		if err := json.Unmarshal(body, &single); err != nil {
			res.Error = "unparseable provider response"
			return res
		}
		items = []map[string]interface{}{single}
	}
	if len(items) == 0 {
		res.Error = "empty provider response"
		return res
	}

	data := items[0]
	status := strings.ToLower(fmt.Sprint(data["status"]))
	switch status {
	case "queued", "sent", "success", "pending", "accepted":
		res.Success = true
	}
	if id, ok := data["message_id"]; ok && id != nil {
		res.ProviderID = fmt.Sprint(id)
		res.Success = true
	}
	if !res.Success {
		res.Error = "provider rejected message: " + status
	}
	return res
}
