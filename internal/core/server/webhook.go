package server

/*
Webhook intake. The source sends loosely shaped JSON payloads whose order
identifier and event name appear under a handful of different keys depending
on the webhook type, so the handler reads the body as a generic map and
probes the known aliases before handing off to the sync layer.
*/

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/printlijst/printlijst/internal/core/auth"
	"github.com/printlijst/printlijst/internal/sync"
	"github.com/printlijst/printlijst/internal/types"
)

const webhookBodyLimit = 1 << 20

// orderUUIDAliases lists the payload keys an order identifier can arrive
// under, probed in order.
var orderUUIDAliases = []string{"orderUuid", "order_uuid", "uuid", "orderId", "order_id"}

// eventAliases lists the payload keys the event name can arrive under.
var eventAliases = []string{"event", "webhookEvent", "type"}

func (s *Server) handleWebhookInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "webhook endpoint is active, POST order events here",
	})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if s.cfg.WebhookSecret != "" {
		sig := r.Header.Get("X-Webhook-Signature")
		if !auth.Verify(s.cfg.WebhookSecret, body, sig) {
			s.log.Warn().Msg("webhook signature rejected")
			respondError(w, http.StatusUnauthorized, "invalid signature")
			return
		}
	}

	payload, err := parseWebhookPayload(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	orderUUID := firstAlias(payload, orderUUIDAliases)
	if orderUUID == "" {
		s.log.Warn().Msg("webhook payload without order identifier")
		respondError(w, http.StatusBadRequest, "payload has no order identifier")
		return
	}

	event := firstAlias(payload, eventAliases)
	status := statusFromEvent(event)
	s.syncer.Stream(sync.KindOrders).Infof("webhook received for order %s (event %q)", orderUUID, event)

	summary, err := s.syncer.HandleOrderEvent(r.Context(), orderUUID, status)
	switch {
	case errors.Is(err, types.ErrMissingOrderUUID):
		respondError(w, http.StatusBadRequest, "payload has no order identifier")
		return
	case errors.Is(err, types.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, fmt.Sprintf("order %s not found at source", orderUUID))
		return
	case err != nil:
		s.log.Error().Err(err).Str("order_uuid", orderUUID).Msg("webhook handling failed")
		respondError(w, http.StatusInternalServerError, "webhook handling failed")
		return
	}

	code := http.StatusOK
	if summary.Imported > 0 {
		code = http.StatusCreated
	}
	respondJSON(w, code, summary)
}

// handleWebhookTest triggers the same path as a real delivery for a caller
// supplied order uuid, skipping signature checks.
func (s *Server) handleWebhookTest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	payload, err := parseWebhookPayload(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	orderUUID := firstAlias(payload, orderUUIDAliases)
	if orderUUID == "" {
		respondError(w, http.StatusBadRequest, "payload has no order identifier")
		return
	}

	summary, err := s.syncer.HandleOrderEvent(r.Context(), orderUUID, "")
	switch {
	case errors.Is(err, types.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, fmt.Sprintf("order %s not found at source", orderUUID))
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "webhook test failed")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func parseWebhookPayload(body []byte) (map[string]interface{}, error) {
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.New("body is not a JSON object")
	}
	return payload, nil
}

// firstAlias returns the first non-empty string value found under any of the
// given keys. Numeric identifiers are rendered without an exponent.
func firstAlias(payload map[string]interface{}, keys []string) string {
	for _, key := range keys {
		v, ok := payload[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			if trimmed := strings.TrimSpace(val); trimmed != "" {
				return trimmed
			}
		case float64:
			return fmt.Sprintf("%.0f", val)
		}
	}
	return ""
}

// statusFromEvent maps a source event name onto an order status. Unknown
// events map to the empty string, which makes the sync layer fetch the
// current status from the source instead.
func statusFromEvent(event string) string {
	e := strings.ToLower(strings.TrimSpace(event))
	switch {
	case e == "":
		return ""
	case strings.Contains(e, "completed"):
		return types.OrderStatusCompleted
	case strings.Contains(e, "cancelled"), strings.Contains(e, "canceled"):
		return types.OrderStatusCancelled
	case strings.Contains(e, "backorder"):
		return types.OrderStatusBackorder
	default:
		return ""
	}
}
