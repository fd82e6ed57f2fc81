package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"museum-sunday/internal/model"
	"museum-sunday/internal/museum"
)

const bookingURLFmt = "https://shop.museumssonntag.berlin/#/tickets/time?museum_id=%d&group=timeSlot&date=%s"

// Messenger sends a text to one user. The bot implements it.
type Messenger interface {
	SendText(userID int64, text string) error
}

// WebhookPoster delivers a short message to a user-provided URL.
type WebhookPoster interface {
	Post(ctx context.Context, url, message string) error
}

// MuseumInfo resolves museum metadata for message formatting.
type MuseumInfo interface {
	Museum(ctx context.Context, id int) (*museum.Museum, error)
}

// Dispatcher turns a capacity observation into user notifications.
type Dispatcher struct {
	museums MuseumInfo
	msg     Messenger
	webhook WebhookPoster
	log     *zap.Logger
}

func NewDispatcher(museums MuseumInfo, msg Messenger, webhook WebhookPoster, log *zap.Logger) *Dispatcher {
	return &Dispatcher{museums: museums, msg: msg, webhook: webhook, log: log}
}

// NotifyAvailable tells every subscriber that slots opened up, then fires
// the webhooks of those who have one. Send failures are logged and the
// remaining users still get theirs; only a metadata failure is returned,
// since without the museum title there is nothing to say.
func (d *Dispatcher) NotifyAvailable(ctx context.Context, museumID int, users []model.User, date time.Time, available, total int) error {
	m, err := d.museums.Museum(ctx, museumID)
	if err != nil {
		return fmt.Errorf("resolve museum %d: %w", museumID, err)
	}

	day := date.Format("2006-01-02")
	text := fmt.Sprintf("Found %d out of %d available slots for *%s* to *%s*\n"+bookingURLFmt,
		available, total, day, m.Title, museumID, day)
	for _, user := range users {
		if err := d.msg.SendText(user.ID, text); err != nil {
			d.log.Warn("notify failed", zap.Int64("user", user.ID), zap.Error(err))
		}
	}

	short := fmt.Sprintf("Found %d available slots for %s to %s", available, day, m.Title)
	for _, user := range users {
		if user.Webhook == "" {
			continue
		}
		if err := d.webhook.Post(ctx, user.Webhook, short); err != nil {
			d.log.Warn("webhook failed", zap.Int64("user", user.ID), zap.Error(err))
		}
	}
	return nil
}
