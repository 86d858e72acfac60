package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deens-academy/timetable-api/internal/models"
	"github.com/deens-academy/timetable-api/pkg/config"
	appErrors "github.com/deens-academy/timetable-api/pkg/errors"
	"github.com/deens-academy/timetable-api/pkg/mail"
)

type notificationRepository interface {
	ListPending(ctx context.Context) ([]models.EmailNotification, error)
	DeleteByIDs(ctx context.Context, ids []int64) error
	ListChanges(ctx context.Context, classSection string, limit int) ([]models.TimetableChangeDetail, error)
}

type recipientResolver interface {
	ListEmailsBySection(ctx context.Context, classSection string) ([]string, error)
}

type sendCounter interface {
	NotificationDrained(processed, sent int)
}

var changeAlertTemplate = template.Must(template.New("change_alert").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Timetable Change Alert</title></head>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Timetable Change Alert</h1>
    <p>There has been a change to your <strong>{{.ClassSection}}</strong> timetable.</p>
    <p><strong>{{.ChangeSummary}}</strong></p>
    <p><a href="{{.DashboardURL}}">View the updated timetable</a></p>
    <p><em>This notification was sent automatically. Please log in to your student dashboard to see the changes.</em></p>
  </div>
</body>
</html>`))

type changeAlertData struct {
	ClassSection  string
	ChangeSummary string
	DashboardURL  string
}

// NotifierService drains the email notification queue. A mutex keeps
// a manual drain from overlapping a scheduled one.
type NotifierService struct {
	mu            sync.Mutex
	repo          notificationRepository
	registrations recipientResolver
	sender        mail.Sender
	metrics       sendCounter
	dashboardURL  string
	sendDelay     time.Duration
	logger        *zap.Logger
}

// NewNotifierService constructs NotifierService. metrics may be nil.
func NewNotifierService(repo notificationRepository, registrations recipientResolver, sender mail.Sender, metrics sendCounter, cfg config.MailConfig, sendDelay time.Duration, logger *zap.Logger) *NotifierService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotifierService{
		repo:          repo,
		registrations: registrations,
		sender:        sender,
		metrics:       metrics,
		dashboardURL:  cfg.DashboardURL,
		sendDelay:     sendDelay,
		logger:        logger,
	}
}

// Drain processes every queued notification in one pass. Records are
// grouped by resolved recipient email so each student receives at most
// one mail per cycle. A per-recipient send failure is logged and
// skipped, never retried. Afterwards every drained record is deleted
// regardless of individual send outcomes. Processed counts drained
// records; Sent counts recipients actually mailed.
func (s *NotifierService) Drain(ctx context.Context) (*models.DrainResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pending notifications")
	}
	if len(pending) == 0 {
		return &models.DrainResult{}, nil
	}

	// First record wins per recipient.
	type outbound struct {
		classSection string
		summary      string
	}
	byEmail := make(map[string]outbound)
	order := make([]string, 0)
	for _, notification := range pending {
		emails, err := s.registrations.ListEmailsBySection(ctx, notification.ClassSection)
		if err != nil {
			s.logger.Error("failed to resolve recipients",
				zap.Int64("notification_id", notification.ID),
				zap.String("class_section", notification.ClassSection),
				zap.Error(err))
			continue
		}
		if len(emails) == 0 {
			s.logger.Warn("no registered students for class",
				zap.String("class_section", notification.ClassSection))
			continue
		}
		for _, email := range emails {
			if _, seen := byEmail[email]; seen {
				continue
			}
			byEmail[email] = outbound{
				classSection: notification.ClassSection,
				summary:      notification.ChangeSummary,
			}
			order = append(order, email)
		}
	}

	sent := 0
	for i, email := range order {
		if i > 0 && s.sendDelay > 0 {
			// Fixed inter-send delay to stay under provider rate limits.
			select {
			case <-ctx.Done():
				return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "drain cancelled")
			case <-time.After(s.sendDelay):
			}
		}

		target := byEmail[email]
		body, err := s.renderChangeAlert(target.classSection, target.summary)
		if err != nil {
			s.logger.Error("failed to render notification", zap.String("to", email), zap.Error(err))
			continue
		}

		messageID, err := s.sender.Send(ctx, mail.Message{
			To:       email,
			Subject:  fmt.Sprintf("Timetable Change Alert - %s", target.classSection),
			HTMLBody: body,
		})
		if err != nil {
			s.logger.Error("failed to send notification", zap.String("to", email), zap.Error(err))
			continue
		}
		s.logger.Info("notification sent", zap.String("to", email), zap.String("message_id", messageID))
		sent++
	}

	// Drained records are removed even when some sends failed; a failed
	// send is dropped, not retried.
	ids := make([]int64, len(pending))
	for i, notification := range pending {
		ids[i] = notification.ID
	}
	if err := s.repo.DeleteByIDs(ctx, ids); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear drained notifications")
	}

	result := &models.DrainResult{Processed: len(pending), Sent: sent}
	if s.metrics != nil {
		s.metrics.NotificationDrained(result.Processed, result.Sent)
	}
	return result, nil
}

// ListPending exposes the queued notifications for the notification view.
func (s *NotifierService) ListPending(ctx context.Context) ([]models.EmailNotification, error) {
	pending, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pending notifications")
	}
	return pending, nil
}

// ListChanges exposes recent change-log entries for the notification view.
func (s *NotifierService) ListChanges(ctx context.Context, classSection string, limit int) ([]models.TimetableChangeDetail, error) {
	changes, err := s.repo.ListChanges(ctx, classSection, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load change log")
	}
	return changes, nil
}

func (s *NotifierService) renderChangeAlert(classSection, summary string) (string, error) {
	var buf bytes.Buffer
	err := changeAlertTemplate.Execute(&buf, changeAlertData{
		ClassSection:  classSection,
		ChangeSummary: summary,
		DashboardURL:  s.dashboardURL,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
