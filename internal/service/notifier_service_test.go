package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deens-academy/timetable-api/internal/models"
	"github.com/deens-academy/timetable-api/pkg/config"
	"github.com/deens-academy/timetable-api/pkg/mail"
)

type mockNotificationRepo struct {
	pending    []models.EmailNotification
	deletedIDs []int64
	changes    []models.TimetableChangeDetail
}

func (m *mockNotificationRepo) ListPending(ctx context.Context) ([]models.EmailNotification, error) {
	return m.pending, nil
}

func (m *mockNotificationRepo) DeleteByIDs(ctx context.Context, ids []int64) error {
	m.deletedIDs = append(m.deletedIDs, ids...)
	return nil
}

func (m *mockNotificationRepo) ListChanges(ctx context.Context, classSection string, limit int) ([]models.TimetableChangeDetail, error) {
	return m.changes, nil
}

type mockRecipients struct {
	bySection map[string][]string
}

func (m *mockRecipients) ListEmailsBySection(ctx context.Context, classSection string) ([]string, error) {
	return m.bySection[classSection], nil
}

type mockMailSender struct {
	sent    []mail.Message
	failFor map[string]error
}

func (m *mockMailSender) Send(ctx context.Context, msg mail.Message) (string, error) {
	if err, ok := m.failFor[msg.To]; ok {
		return "", err
	}
	m.sent = append(m.sent, msg)
	return "msg-id", nil
}

func newNotifierFixture(repo *mockNotificationRepo, recipients *mockRecipients, sender *mockMailSender) *NotifierService {
	cfg := config.MailConfig{DashboardURL: "https://timetable.example.com"}
	return NewNotifierService(repo, recipients, sender, nil, cfg, 0, zap.NewNop())
}

func TestNotifierServiceDrainDeduplicatesRecipients(t *testing.T) {
	repo := &mockNotificationRepo{pending: []models.EmailNotification{
		{ID: 1, ClassSection: "Grade 6 A", ChangeSummary: "Monday period 1 is now Math"},
		{ID: 2, ClassSection: "Grade 6 A", ChangeSummary: "Tuesday period 2 was cleared"},
	}}
	recipients := &mockRecipients{bySection: map[string][]string{
		"Grade 6 A": {"amina@example.com"},
	}}
	sender := &mockMailSender{}
	service := newNotifierFixture(repo, recipients, sender)

	result, err := service.Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Sent)

	// First queued record wins for the shared recipient.
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "amina@example.com", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].HTMLBody, "Monday period 1 is now Math")

	assert.Equal(t, []int64{1, 2}, repo.deletedIDs)
}

func TestNotifierServiceDrainSendsPerDistinctRecipient(t *testing.T) {
	repo := &mockNotificationRepo{pending: []models.EmailNotification{
		{ID: 5, ClassSection: "Grade 6 A", ChangeSummary: "Timetable has been updated"},
		{ID: 6, ClassSection: "Grade 7 B", ChangeSummary: "Friday period 8 is now Urdu"},
	}}
	recipients := &mockRecipients{bySection: map[string][]string{
		"Grade 6 A": {"amina@example.com", "yusuf@example.com"},
		"Grade 7 B": {"yusuf@example.com", "zara@example.com"},
	}}
	sender := &mockMailSender{}
	service := newNotifierFixture(repo, recipients, sender)

	result, err := service.Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 3, result.Sent)

	require.Len(t, sender.sent, 3)
	// yusuf is in both sections but receives only the first record's alert.
	for _, msg := range sender.sent {
		if msg.To == "yusuf@example.com" {
			assert.True(t, strings.Contains(msg.Subject, "Grade 6 A"))
		}
	}
}

func TestNotifierServiceDrainSkipsFailedSends(t *testing.T) {
	repo := &mockNotificationRepo{pending: []models.EmailNotification{
		{ID: 9, ClassSection: "Grade 6 A", ChangeSummary: "Monday period 1 is now Math"},
	}}
	recipients := &mockRecipients{bySection: map[string][]string{
		"Grade 6 A": {"amina@example.com", "broken@example.com"},
	}}
	sender := &mockMailSender{failFor: map[string]error{
		"broken@example.com": errors.New("mailbox unavailable"),
	}}
	service := newNotifierFixture(repo, recipients, sender)

	result, err := service.Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Sent)

	// The record is still removed even though one send failed.
	assert.Equal(t, []int64{9}, repo.deletedIDs)
}

func TestNotifierServiceDrainEmptyQueue(t *testing.T) {
	repo := &mockNotificationRepo{}
	sender := &mockMailSender{}
	service := newNotifierFixture(repo, &mockRecipients{}, sender)

	result, err := service.Drain(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.Processed)
	assert.Zero(t, result.Sent)
	assert.Empty(t, sender.sent)
	assert.Empty(t, repo.deletedIDs)
}

func TestNotifierServiceDrainNoRegisteredStudents(t *testing.T) {
	repo := &mockNotificationRepo{pending: []models.EmailNotification{
		{ID: 3, ClassSection: "Grade 6 A", ChangeSummary: "Monday period 1 is now Math"},
	}}
	sender := &mockMailSender{}
	service := newNotifierFixture(repo, &mockRecipients{}, sender)

	result, err := service.Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Zero(t, result.Sent)
	assert.Equal(t, []int64{3}, repo.deletedIDs)
}

func TestNotifierServiceRenderChangeAlert(t *testing.T) {
	service := newNotifierFixture(&mockNotificationRepo{}, &mockRecipients{}, &mockMailSender{})

	body, err := service.renderChangeAlert("Grade 6 A", "Monday period 1 is now Math")
	require.NoError(t, err)
	assert.Contains(t, body, "Timetable Change Alert")
	assert.Contains(t, body, "Grade 6 A")
	assert.Contains(t, body, "https://timetable.example.com")
}
