package services

import (
	"context"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/repository"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

type NotificationService struct {
	notificationRepo *repository.NotificationRepository
}

func NewNotificationService(notificationRepo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// Feed returns the admin notification feed, newest first, with the unread
// count the dashboard badge shows.
func (s *NotificationService) Feed(ctx context.Context, page, limit int) (*models.NotificationFeed, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	notifications, err := s.notificationRepo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.notificationRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	unread, err := s.notificationRepo.CountUnread(ctx)
	if err != nil {
		return nil, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return &models.NotificationFeed{
		Notifications: notifications,
		UnreadCount:   unread,
		Meta: models.PaginationMeta{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, notificationID int64) (*models.Notification, error) {
	return s.notificationRepo.MarkRead(ctx, notificationID)
}
