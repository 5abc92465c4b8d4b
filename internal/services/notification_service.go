package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"taskhub/internal/apperrors"
	"taskhub/internal/authz"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

// Notifier records fire-and-forget events. Emit never reports failure to the
// caller.
type Notifier interface {
	Emit(ctx context.Context, userID int64, kind, message string)
}

// Relayer forwards a recorded notification to an external channel.
type Relayer interface {
	Relay(userID int64, kind, message string) error
}

type NotificationService interface {
	Notifier
	List(ctx context.Context, actor models.Actor) ([]models.Notification, error)
	DeleteByUser(ctx context.Context, actor models.Actor, userID int64) (int64, error)
	Close()
}

type notificationService struct {
	repo  repositories.NotificationRepository
	relay Relayer
	bg    *Background
}

func NewNotificationService(repo repositories.NotificationRepository, relay Relayer) NotificationService {
	return &notificationService{repo: repo, relay: relay, bg: NewBackground(5 * time.Second)}
}

// Emit stores the notification in a detached goroutine; request
// cancellation does not abort it.
func (s *notificationService) Emit(ctx context.Context, userID int64, kind, message string) {
	if userID == 0 {
		return
	}
	s.bg.Go(ctx, "notify", func(ctx context.Context) error {
		n := &models.Notification{UserID: userID, Message: message, Type: kind}
		if err := s.repo.Create(ctx, n); err != nil {
			return fmt.Errorf("user=%d type=%s: %w", userID, kind, err)
		}
		if s.relay != nil {
			if err := s.relay.Relay(userID, kind, message); err != nil {
				log.Printf("[notify][relay][err] user=%d type=%s: %v", userID, kind, err)
			}
		}
		return nil
	})
}

// Close waits for in-flight emissions; later Emit calls are dropped.
func (s *notificationService) Close() {
	s.bg.Close()
}

func (s *notificationService) List(ctx context.Context, actor models.Actor) ([]models.Notification, error) {
	if !authz.IsAdmin(actor) {
		return nil, apperrors.Forbidden("admin access required")
	}
	return s.repo.List(ctx)
}

// DeleteByUser removes every notification addressed to userID and records
// an audit entry for the acting admin.
func (s *notificationService) DeleteByUser(ctx context.Context, actor models.Actor, userID int64) (int64, error) {
	if !authz.IsAdmin(actor) {
		return 0, apperrors.Forbidden("admin access required")
	}
	n, err := s.repo.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("delete notifications: %w", err)
	}
	s.Emit(ctx, actor.ID, models.NotificationPurge,
		fmt.Sprintf("%s deleted %d notification(s) of user #%d", actor.DisplayName, n, userID))
	return n, nil
}
