package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"schoolreg_backend/internals/configs"
)

/* =========================================================
   NOTIFIER (best-effort)
   Events go to the notifications service over HTTP. Delivery
   is fire-and-forget: a short timeout, failures only logged,
   never propagated to the caller's transaction.
   ========================================================= */

const notifyTimeout = 3 * time.Second

var httpClient = &http.Client{Timeout: notifyTimeout}

type Event struct {
	Type      string                 `json:"type"`
	StudentID string                 `json:"student_id,omitempty"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Notify ships the event in a goroutine and returns immediately.
func Notify(event Event) {
	go send(event)
}

// PaymentReceived announces a settled payment. Called after the ledger tx
// commits, never inside it.
func PaymentReceived(studentID string, amountCents int64, method string) {
	Notify(Event{
		Type:      "payment_received",
		StudentID: studentID,
		Title:     "Paiement reçu",
		Message:   fmt.Sprintf("Paiement de %.2f $ reçu (%s)", float64(amountCents)/100, method),
		Data: map[string]interface{}{
			"amount_cents": amountCents,
			"method":       method,
		},
	})
}

// StudentChanged announces an administrative change on the student record.
func StudentChanged(studentID, message string) {
	Notify(Event{
		Type:      "student_changed",
		StudentID: studentID,
		Title:     "Dossier mis à jour",
		Message:   message,
	})
}

func send(event Event) {
	body, err := sonic.Marshal(event)
	if err != nil {
		log.Printf("[NOTIFY] marshal failed type=%s: %v", event.Type, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	url := configs.NotificationsURL + "/api/notifications/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Printf("[NOTIFY] build request failed type=%s: %v", event.Type, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		log.Printf("[NOTIFY] delivery failed type=%s: %v", event.Type, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("[NOTIFY] delivery rejected type=%s status=%d", event.Type, resp.StatusCode)
	}
}
