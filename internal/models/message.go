package models

import "time"

// Message is a single entry of a two-party dialog.
// From is nil when the sender was not authenticated.
type Message struct {
	ID        int64     `json:"id"`
	From      *int64    `json:"from"`
	To        int64     `json:"to"`
	Text      string    `json:"text"`
	ReplyTo   *int64    `json:"reply_to"`
	Timestamp Timestamp `json:"ts"`
	RequestID string    `json:"request_id"`
}

// Involves reports whether the message belongs to the dialog between me and other.
func (m *Message) Involves(me *int64, other int64) bool {
	return (sameUser(m.From, me) && m.To == other) ||
		(sameUser(m.From, &other) && me != nil && m.To == *me)
}

func sameUser(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// DialogPage is one window of a dialog history.
type DialogPage struct {
	Total int        `json:"total"`
	Items []*Message `json:"items"`
}

// Timestamp marshals as an ISO-8601 UTC string with millisecond precision.
type Timestamp time.Time

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Now returns the current time truncated to milliseconds.
func Now() Timestamp {
	return Timestamp(time.Now().UTC().Truncate(time.Millisecond))
}

// Time converts back to time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// MarshalJSON writes e.g. "2024-05-01T12:00:00.000Z".
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).UTC().Format(timestampLayout) + `"`), nil
}

// UnmarshalJSON accepts any RFC 3339 string; null leaves t unchanged.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	parsed, err := time.Parse(`"`+time.RFC3339Nano+`"`, string(data))
	if err != nil {
		return err
	}
	*t = Timestamp(parsed.UTC())
	return nil
}
