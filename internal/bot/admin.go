package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"museum-sunday/internal/model"
)

const (
	adminUserPrefix = "/user"
	adminTaskPrefix = "/task"

	adminUsage = "*/user list*\n" +
		"*/user add* <id> <name>\n" +
		"*/user del* <id>\n" +
		"*/user hook* <id> [url]\n" +
		"*/task list*\n" +
		"*/task del* <museumId>"
)

// isAdminCommand reports whether the first word is an admin prefix. An
// exact-word match keeps "/tasks" out of the "/task" grammar.
func isAdminCommand(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	return fields[0] == adminUserPrefix || fields[0] == adminTaskPrefix
}

// handleAdmin runs the out-of-band user and task management grammar. Only
// the configured admin ever reaches this.
func (h *Handler) handleAdmin(ctx context.Context, text string) error {
	fields := strings.Fields(text)
	var (
		reply string
		err   error
	)
	switch fields[0] {
	case adminUserPrefix:
		reply, err = h.adminUser(ctx, fields[1:])
	case adminTaskPrefix:
		reply, err = h.adminTask(ctx, fields[1:])
	}
	if err != nil {
		return err
	}
	return h.msg.SendText(h.adminID, reply)
}

func (h *Handler) adminUser(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return adminUsage, nil
	}

	switch args[0] {
	case "list":
		users, err := h.users.ListAll(ctx)
		if err != nil {
			return "", err
		}
		lines := make([]string, 0, len(users))
		for _, u := range users {
			line := fmt.Sprintf("*%d*: %s", u.ID, u.Name)
			if u.Webhook != "" {
				line += " 🔗"
			}
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			return "No users yet", nil
		}
		return strings.Join(lines, "\n"), nil

	case "add":
		if len(args) < 3 {
			return adminUsage, nil
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return adminUsage, nil
		}
		name := strings.Join(args[2:], " ")
		if err := h.users.Create(ctx, &model.User{ID: id, Name: name}); err != nil {
			return "", err
		}
		h.log.Info("user created", zap.Int64("id", id), zap.String("name", name))
		return fmt.Sprintf("User *%s* created", name), nil

	case "del":
		if len(args) != 2 {
			return adminUsage, nil
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return adminUsage, nil
		}
		if err := h.users.Delete(ctx, id); err != nil {
			return "", err
		}
		h.log.Info("user deleted", zap.Int64("id", id))
		return fmt.Sprintf("User %d deleted", id), nil

	case "hook":
		if len(args) < 2 || len(args) > 3 {
			return adminUsage, nil
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return adminUsage, nil
		}
		user, err := h.users.Get(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Sprintf("User %d not found", id), nil
			}
			return "", err
		}
		user.Webhook = ""
		if len(args) == 3 {
			user.Webhook = args[2]
		}
		if err := h.users.Update(ctx, user); err != nil {
			return "", err
		}
		if user.Webhook == "" {
			return fmt.Sprintf("Webhook cleared for *%s*", user.Name), nil
		}
		return fmt.Sprintf("Webhook set for *%s*", user.Name), nil

	default:
		return adminUsage, nil
	}
}

func (h *Handler) adminTask(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return adminUsage, nil
	}

	switch args[0] {
	case "list":
		grouped, err := h.tasks.GroupedByMuseum(ctx)
		if err != nil {
			return "", err
		}
		if len(grouped) == 0 {
			return "No tasks yet", nil
		}
		museumIDs := make([]int, 0, len(grouped))
		for id := range grouped {
			museumIDs = append(museumIDs, id)
		}
		sort.Ints(museumIDs)
		lines := make([]string, 0, len(museumIDs))
		for _, id := range museumIDs {
			names := make([]string, 0, len(grouped[id]))
			for _, u := range grouped[id] {
				names = append(names, u.Name)
			}
			lines = append(lines, fmt.Sprintf("*%d*: %s", id, strings.Join(names, ", ")))
		}
		return strings.Join(lines, "\n"), nil

	case "del":
		if len(args) != 2 {
			return adminUsage, nil
		}
		museumID, err := strconv.Atoi(args[1])
		if err != nil {
			return adminUsage, nil
		}
		if err := h.tasks.DeleteByMuseum(ctx, museumID); err != nil {
			return "", err
		}
		h.log.Info("tasks deleted by admin", zap.Int("museum", museumID))
		return fmt.Sprintf("Tasks for museum %d deleted", museumID), nil

	default:
		return adminUsage, nil
	}
}
