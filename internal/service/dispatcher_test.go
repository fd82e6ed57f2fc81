package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"museum-sunday/internal/model"
)

func TestDispatcher_SendFailureDoesNotBlockOthers(t *testing.T) {
	msg := &fakeMessenger{fail: map[int64]bool{1: true}}
	hook := &fakeWebhook{}
	d := NewDispatcher(fakeInfo{}, msg, hook, zap.NewNop())

	users := []model.User{
		{ID: 1, Name: "Alice"},
		{ID: 2, Name: "Bob", Webhook: "https://example.org/bob"},
	}
	date := time.Date(2026, time.September, 6, 0, 0, 0, 0, time.UTC)
	if err := d.NotifyAvailable(context.Background(), 3, users, date, 2, 20); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(msg.sends) != 1 || msg.sends[0] != 2 {
		t.Fatalf("Bob must still be notified when Alice's send fails, got %v", msg.sends)
	}
	if len(hook.urls) != 1 || hook.urls[0] != "https://example.org/bob" {
		t.Fatalf("expected Bob's webhook fired, got %v", hook.urls)
	}
	if !strings.Contains(hook.messages[0], "2 available slots") {
		t.Fatalf("webhook message should carry the count: %q", hook.messages[0])
	}
}

func TestDispatcher_MessageFormat(t *testing.T) {
	msg := &fakeMessenger{}
	d := NewDispatcher(fakeInfo{}, msg, &fakeWebhook{}, zap.NewNop())

	date := time.Date(2026, time.September, 6, 0, 0, 0, 0, time.UTC)
	users := []model.User{{ID: 1, Name: "Alice"}}
	if err := d.NotifyAvailable(context.Background(), 7, users, date, 4, 30); err != nil {
		t.Fatalf("notify: %v", err)
	}

	text := msg.texts[0]
	for _, want := range []string{
		"4 out of 30",
		"*2026-09-06*",
		"*Museum 7*",
		"https://shop.museumssonntag.berlin/#/tickets/time?museum_id=7&group=timeSlot&date=2026-09-06",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("notification missing %q: %q", want, text)
		}
	}
}
