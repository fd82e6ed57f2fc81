package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"museum-sunday/internal/model"
	"museum-sunday/internal/museum"
	"museum-sunday/internal/repository"
)

const (
	rejectText  = "Sorry, you are not allowed to write me."
	apologyText = "Sorry, something went wrong 😔"
	textOnly    = "Sorry, I can only process text messages."
	invalidID   = "Hmm, looks like not correct museum ID"
	noTasksYet  = "Nothing to check yet"
)

// Messenger sends user-facing messages. Bot implements it; tests fake it.
type Messenger interface {
	SendText(userID int64, text string) error
	SendPhoto(userID int64, imageURL, caption string) error
}

// Directory is the museum catalog slice the handler needs.
type Directory interface {
	Museums(ctx context.Context) ([]museum.Museum, error)
	Museum(ctx context.Context, id int) (*museum.Museum, error)
}

// Handler interprets incoming text commands. Classification is ordered:
// unknown sender, admin grammar, fixed commands, museum-id fallback.
type Handler struct {
	msg     Messenger
	users   *repository.UserCache
	tasks   *repository.TaskRepository
	museums Directory
	adminID int64
	log     *zap.Logger
}

func NewHandler(msg Messenger, users *repository.UserCache, tasks *repository.TaskRepository, museums Directory, adminID int64, log *zap.Logger) *Handler {
	return &Handler{
		msg:     msg,
		users:   users,
		tasks:   tasks,
		museums: museums,
		adminID: adminID,
		log:     log,
	}
}

// HandleMessage processes one incoming message. It never returns an error:
// whatever goes wrong ends up in the log and as a generic reply, not back
// at the transport.
func (h *Handler) HandleMessage(ctx context.Context, senderID int64, senderName, text string) {
	user, err := h.users.Get(ctx, senderID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			h.log.Error("user lookup failed", zap.Int64("sender", senderID), zap.Error(err))
		}
		h.rejectUnknown(senderID, senderName, text)
		return
	}

	if text == "" {
		h.send(user.ID, textOnly)
		return
	}

	h.log.Info("message received", zap.String("user", user.Name), zap.String("text", text))
	if err := h.dispatch(ctx, user, text); err != nil {
		h.log.Error("message handling failed", zap.String("user", user.Name), zap.Error(err))
		h.send(user.ID, apologyText)
	}
}

func (h *Handler) rejectUnknown(senderID int64, senderName, text string) {
	h.log.Warn("message from unknown sender",
		zap.Int64("sender", senderID),
		zap.String("name", senderName),
		zap.String("text", text))
	h.send(senderID, rejectText)
	if text == "/start" {
		h.send(h.adminID, fmt.Sprintf("Unknown user wants to start: %d (%s)", senderID, senderName))
	}
}

func (h *Handler) dispatch(ctx context.Context, user *model.User, text string) error {
	if user.ID == h.adminID && isAdminCommand(text) {
		return h.handleAdmin(ctx, text)
	}

	switch text {
	case "/start":
		h.send(user.ID, fmt.Sprintf("Hello %s 😃", user.Name))
		return h.sendHelp(user)
	case "/list":
		return h.sendMuseumList(ctx, user)
	case "/tasks":
		return h.sendUserTasks(ctx, user)
	case "/help":
		return h.sendHelp(user)
	default:
		return h.toggleTask(ctx, user, text)
	}
}

func (h *Handler) sendHelp(user *model.User) error {
	help := "Send me a museum ID to get notified about free slots (send it again to stop).\n" +
		"*/list* — all museums\n" +
		"*/tasks* — your subscriptions\n" +
		"*/help* — this message"
	if user.ID == h.adminID {
		help += "\n\nAdmin:\n" + adminUsage
	}
	return h.msg.SendText(user.ID, help)
}

func (h *Handler) sendMuseumList(ctx context.Context, user *model.User) error {
	museums, err := h.museums.Museums(ctx)
	if err != nil {
		return err
	}
	lines := make([]string, 0, len(museums))
	for _, m := range museums {
		lines = append(lines, fmt.Sprintf("*%d*: %s", m.ID, m.Title))
	}
	return h.msg.SendText(user.ID, strings.Join(lines, "\n"))
}

func (h *Handler) sendUserTasks(ctx context.Context, user *model.User) error {
	tasks, err := h.tasks.FindByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return h.msg.SendText(user.ID, noTasksYet)
	}
	lines := make([]string, 0, len(tasks))
	for _, task := range tasks {
		m, err := h.museums.Museum(ctx, task.MuseumID)
		if err != nil {
			return err
		}
		lines = append(lines, fmt.Sprintf("*%d*: %s", task.MuseumID, m.Title))
	}
	return h.msg.SendText(user.ID, strings.Join(lines, "\n"))
}

// toggleTask treats the text as a museum id and flips the subscription.
// Bad input or an unknown museum is the user's mistake, not an error.
func (h *Handler) toggleTask(ctx context.Context, user *model.User, text string) error {
	museumID, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		h.log.Warn("not a museum id", zap.String("user", user.Name), zap.String("text", text))
		h.send(user.ID, invalidID)
		return nil
	}

	m, err := h.museums.Museum(ctx, museumID)
	if err != nil {
		if errors.Is(err, museum.ErrNotFound) {
			h.log.Warn("unknown museum id", zap.String("user", user.Name), zap.Int("museum", museumID))
			h.send(user.ID, invalidID)
			return nil
		}
		return err
	}

	created, err := h.tasks.Toggle(ctx, user.ID, m.ID)
	if err != nil {
		return err
	}

	if created {
		h.log.Info("task created", zap.String("user", user.Name), zap.Int("museum", m.ID))
		caption := fmt.Sprintf("Ok, I'll notify you about tickets to *%s*", m.Title)
		return h.msg.SendPhoto(user.ID, m.Picture.Detail, caption)
	}

	h.log.Info("task deleted", zap.String("user", user.Name), zap.Int("museum", m.ID))
	return h.msg.SendText(user.ID, fmt.Sprintf("Task deleted, no more notifications about *%s*", m.Title))
}

// send is for replies where a delivery failure only rates a log line.
func (h *Handler) send(userID int64, text string) {
	if err := h.msg.SendText(userID, text); err != nil {
		h.log.Warn("send failed", zap.Int64("user", userID), zap.Error(err))
	}
}
