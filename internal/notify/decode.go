package notify

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUndecodable marks a message in neither accepted shape.
var ErrUndecodable = errors.New("undecodable notification message")

// Notification is a decoded queue message ready for delivery.
type Notification struct {
	ID             string
	RecipientEmail string
	RecipientName  string
	Subject        string
	Body           string
	CreatedBy      string
	CreatedAt      time.Time
}

type canonicalMessage struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	Subject   string          `json:"subject"`
	Body      string          `json:"body"`
	Timestamp json.RawMessage `json:"timestamp"`
}

type flattenedMessage struct {
	ItemName       string          `json:"ItemName"`
	Description    string          `json:"Description"`
	RecipientEmail string          `json:"RecipientEmail"`
	RecipientName  string          `json:"RecipientName"`
	CreatedBy      string          `json:"CreatedBy"`
	CreatedAt      json.RawMessage `json:"CreatedAt"`
}

// Decode parses body in the canonical shape, falling back to the flattened
// item shape. fallbackID is used when the payload carries no id; when it is
// empty too the id is derived from the body hash.
func Decode(body []byte, fallbackID string) (Notification, error) {
	id := fallbackID
	if id == "" {
		id = hashID(body)
	}

	var c canonicalMessage
	if err := json.Unmarshal(body, &c); err == nil && strings.TrimSpace(c.Email) != "" {
		if c.ID != "" {
			id = c.ID
		}
		n := Notification{
			ID:             id,
			RecipientEmail: strings.TrimSpace(c.Email),
			RecipientName:  "User",
			Subject:        c.Subject,
			Body:           c.Body,
			CreatedBy:      "System",
			CreatedAt:      time.Now().UTC(),
		}
		if n.Subject == "" {
			n.Subject = "Email Notification"
		}
		if ts, ok := parseTimestamp(c.Timestamp); ok {
			n.CreatedAt = ts
		}
		return n, nil
	}

	var f flattenedMessage
	if err := json.Unmarshal(body, &f); err != nil {
		return Notification{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if strings.TrimSpace(f.RecipientEmail) == "" {
		return Notification{}, fmt.Errorf("%w: missing recipient", ErrUndecodable)
	}
	n := Notification{
		ID:             id,
		RecipientEmail: strings.TrimSpace(f.RecipientEmail),
		RecipientName:  f.RecipientName,
		Subject:        "Item Created: " + f.ItemName,
		Body:           f.Description,
		CreatedBy:      f.CreatedBy,
		CreatedAt:      time.Now().UTC(),
	}
	if ts, ok := parseTimestamp(f.CreatedAt); ok {
		n.CreatedAt = ts
	}
	if n.RecipientName == "" {
		n.RecipientName = "User"
	}
	if n.CreatedBy == "" {
		n.CreatedBy = "System"
	}
	return n, nil
}

// PeekID extracts the canonical id from body without validating the rest,
// falling back to the body hash.
func PeekID(body []byte) string {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && probe.ID != "" {
		return probe.ID
	}
	return hashID(body)
}

// parseTimestamp accepts RFC 3339 and zone-less ISO 8601 strings, the latter
// read as UTC. Anything else is ignored and the receive time is kept.
func parseTimestamp(raw json.RawMessage) (time.Time, bool) {
	var value string
	if len(raw) == 0 || json.Unmarshal(raw, &value) != nil {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func hashID(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:16])
}
