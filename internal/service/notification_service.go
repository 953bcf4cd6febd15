package service

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/paradisefm/facilities-api/internal/models"
	appErrors "github.com/paradisefm/facilities-api/pkg/errors"
	"github.com/paradisefm/facilities-api/pkg/jobs"
	"github.com/paradisefm/facilities-api/pkg/mailer"
)

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// ExtractMentions returns the usernames mentioned in a note, in order of
// first appearance, deduplicated.
func ExtractMentions(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	seen := map[string]bool{}
	var usernames []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			usernames = append(usernames, m[1])
		}
	}
	return usernames
}

type notificationRepository interface {
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	Create(ctx context.Context, notification *models.Notification) error
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

type mentionUserResolver interface {
	FindByUsernames(ctx context.Context, usernames []string) ([]models.User, error)
}

// NotificationService delivers in-app notifications and, when the global
// toggle is on, mirrors them to email through the jobs queue.
type NotificationService struct {
	repo         notificationRepository
	users        mentionUserResolver
	queue        *jobs.Queue
	emailEnabled bool
	logger       *zap.Logger
}

// NewNotificationService constructs a NotificationService instance. The
// queue's handler is expected to deliver mailer.Message payloads.
func NewNotificationService(repo notificationRepository, users mentionUserResolver, queue *jobs.Queue, emailEnabled bool, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, users: users, queue: queue, emailEnabled: emailEnabled, logger: logger}
}

// List returns the user's notifications.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	notifications, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// UnreadCount returns the badge number for the user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return count, nil
}

// MarkRead flips one notification owned by the caller.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	return nil
}

// MarkAllRead flips every unread notification for the caller.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

// NotifyMentions resolves @mentions in a note and notifies each matched
// user. Unknown usernames are silently ignored; storage or email problems
// are logged and never fail the caller.
func (s *NotificationService) NotifyMentions(ctx context.Context, note string, request *models.RepairRequest, actorName string) {
	usernames := ExtractMentions(note)
	if len(usernames) == 0 {
		return
	}
	users, err := s.users.FindByUsernames(ctx, usernames)
	if err != nil {
		s.logger.Warn("failed to resolve mentioned users", zap.Error(err))
		return
	}
	title := fmt.Sprintf("%s mentioned you on #%d %s", actorName, request.Number, request.Title)
	for _, user := range users {
		s.Notify(ctx, user, models.NotificationMention, title, note, &request.ID)
	}
}

// NotifyAssignment tells a user they were assigned to a request.
func (s *NotificationService) NotifyAssignment(ctx context.Context, assignee models.User, request *models.RepairRequest, actorName string) {
	title := fmt.Sprintf("%s assigned #%d %s to you", actorName, request.Number, request.Title)
	s.Notify(ctx, assignee, models.NotificationAssignment, title, request.Description, &request.ID)
}

// Notify stores an in-app notification and enqueues the email mirror when
// enabled. The message preview in the email is truncated to 200 characters.
func (s *NotificationService) Notify(ctx context.Context, user models.User, kind models.NotificationType, title, message string, requestID *string) {
	notification := &models.Notification{
		UserID:    user.ID,
		Type:      kind,
		Title:     title,
		Message:   message,
		RequestID: requestID,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		s.logger.Warn("failed to store notification",
			zap.String("user_id", user.ID), zap.Error(err))
		return
	}

	if !s.emailEnabled || user.Email == "" || s.queue == nil {
		return
	}
	body := fmt.Sprintf("%s\n\n%s", title, truncate(message, 200))
	err := s.queue.Enqueue(jobs.Job{
		ID:      notification.ID,
		Type:    "notification-email",
		Payload: mailer.Message{To: []string{user.Email}, Subject: title, Body: body},
	})
	if err != nil {
		s.logger.Warn("failed to enqueue notification email",
			zap.String("user_id", user.ID), zap.Error(err))
	}
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}
