package backend

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/wms-platform/scanner-service/internal/domain"
)

type messageBody struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// DecodeScanOutcome maps a resolver response onto a ScanOutcome. The first
// present key of success, warning and error wins. A body with none of them, or
// one that is not a JSON object, is reported as domain.ErrMalformedOutcome.
func DecodeScanOutcome(body []byte) (domain.ScanOutcome, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return domain.ScanOutcome{}, fmt.Errorf("%w: %v", domain.ErrMalformedOutcome, err)
	}

	if raw, ok := present(fields, "success"); ok {
		msg := decodeMessage(raw)
		return domain.Success(msg.Title, msg.Message), nil
	}
	if raw, ok := present(fields, "warning"); ok {
		msg := decodeMessage(raw)
		return domain.Warning(msg.Title, msg.Message), nil
	}
	if raw, ok := present(fields, "error"); ok {
		return domain.Failure(decodeMessage(raw).Message), nil
	}

	return domain.ScanOutcome{}, fmt.Errorf("%w: %s", domain.ErrMalformedOutcome, truncate(body, 200))
}

// present reports whether key holds a truthy value
func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok {
		return nil, false
	}
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", `""`, "0":
		return nil, false
	}
	return raw, true
}

// decodeMessage accepts either {"title","message"} or a bare string
func decodeMessage(raw json.RawMessage) messageBody {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return messageBody{Message: text}
	}
	var msg messageBody
	_ = json.Unmarshal(raw, &msg)
	return msg
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
