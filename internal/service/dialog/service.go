package dialog

import (
	"context"
	"errors"
	"fmt"
	"math"

	"dialoghub/internal/metrics"
	"dialoghub/internal/models"
	"dialoghub/internal/storage"
)

const (
	DefaultLimit  = 50
	DefaultOffset = 0
)

var ErrTextRequired = errors.New("text is required")

// SendRequest describes one outgoing message. From is nil for
// unauthenticated senders.
type SendRequest struct {
	From      *int64
	To        int64
	Text      string
	ReplyTo   *int64
	RequestID string
}

// Service stores and pages two-party message histories.
type Service struct {
	store storage.MessageStore
	now   func() models.Timestamp
}

func NewService(store storage.MessageStore) *Service {
	return &Service{store: store, now: models.Now}
}

// Send appends a message and returns it with its assigned id and timestamp.
// A zero ReplyTo is stored as no reply.
func (s *Service) Send(ctx context.Context, req SendRequest) (*models.Message, error) {
	if req.Text == "" {
		return nil, ErrTextRequired
	}
	replyTo := req.ReplyTo
	if replyTo != nil && *replyTo == 0 {
		replyTo = nil
	}
	msg, err := s.store.AppendMessage(ctx, &models.Message{
		From:      req.From,
		To:        req.To,
		Text:      req.Text,
		ReplyTo:   replyTo,
		Timestamp: s.now(),
		RequestID: req.RequestID,
	})
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	metrics.MessagesSent.Inc()
	return msg, nil
}

// List returns the dialog between me and other in send order, windowed by
// offset and limit. Total counts the whole dialog.
func (s *Service) List(ctx context.Context, me *int64, other int64, limit, offset int) (*models.DialogPage, error) {
	list, err := s.store.DialogMessages(ctx, me, other)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	start, end := window(len(list), offset, limit)
	items := make([]*models.Message, 0, end-start)
	items = append(items, list[start:end]...)
	return &models.DialogPage{
		Total: len(list),
		Items: items,
	}, nil
}

// window converts [offset, offset+limit) into valid slice bounds for a list
// of n items: negative bounds count back from the end, bounds past either
// edge clamp, and an inverted range is empty.
func window(n, offset, limit int) (int, int) {
	begin := clampIndex(n, offset)
	end := clampIndex(n, saturatingAdd(offset, limit))
	if end < begin {
		end = begin
	}
	return begin, end
}

func saturatingAdd(a, b int) int {
	sum := a + b
	switch {
	case b > 0 && sum < a:
		return math.MaxInt
	case b < 0 && sum > a:
		return math.MinInt
	}
	return sum
}

func clampIndex(n, i int) int {
	if i < 0 {
		i += n
		if i < 0 {
			return 0
		}
	}
	if i > n {
		return n
	}
	return i
}
