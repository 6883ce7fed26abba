package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/startupjobs/jobboard-service/internal/errors"
	"github.com/startupjobs/jobboard-service/internal/lifecycle"
	"github.com/startupjobs/jobboard-service/internal/models"
	"github.com/startupjobs/jobboard-service/internal/notify"
	"github.com/startupjobs/jobboard-service/internal/storage"
)

// MockNotifier is a mock implementation of the Notifier interface
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, recipient, templateName string, vars map[string]string) error {
	args := m.Called(ctx, recipient, templateName, vars)
	return args.Error(0)
}

// MockStore is a mock implementation of the Store interface
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Insert(ctx context.Context, posting models.JobPosting) (string, error) {
	args := m.Called(ctx, posting)
	return args.String(0), args.Error(1)
}

const operator = "operator@startupjobs.example"

func validSubmission() Submission {
	return Submission{
		Title:        "Backend Engineer",
		Company:      "Acme",
		Category:     "engineering",
		Location:     "Lisbon",
		Link:         "https://acme.example/jobs/1",
		ContactEmail: "a@acme.example",
	}
}

func newTestLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}

func TestService_SubmitCreatesPendingPosting(t *testing.T) {
	now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	store := storage.NewMemoryStorage()
	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	logger, _ := newTestLogger()
	service := NewService(store, notifier, lifecycle.NewFixedClock(now), operator, logger)

	id, err := service.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	all, err := store.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, id, all[0].ID)
	assert.Equal(t, models.StatusPending, all[0].Status)
	assert.Equal(t, now, all[0].CreatedAt)
	assert.Equal(t, "https://acme.example/jobs/1", all[0].Link)
}

func TestService_SubmitNotifiesSubmitterThenOperator(t *testing.T) {
	store := storage.NewMemoryStorage()
	notifier := new(MockNotifier)
	logger, _ := newTestLogger()
	service := NewService(store, notifier, nil, operator, logger)

	vars := map[string]string{"job_title": "Backend Engineer", "company": "Acme"}
	var order []string
	notifier.On("Notify", mock.Anything, "a@acme.example", notify.TemplateNewJob, vars).
		Run(func(mock.Arguments) {
			all, _ := store.GetAll(context.Background())
			assert.Len(t, all, 1, "posting must exist before notifying")
			order = append(order, notify.TemplateNewJob)
		}).Return(nil).Once()
	notifier.On("Notify", mock.Anything, operator, notify.TemplateSubmissionNotification, vars).
		Run(func(mock.Arguments) { order = append(order, notify.TemplateSubmissionNotification) }).
		Return(nil).Once()

	_, err := service.Submit(context.Background(), validSubmission())

	require.NoError(t, err)
	assert.Equal(t, []string{notify.TemplateNewJob, notify.TemplateSubmissionNotification}, order)
	notifier.AssertExpectations(t)
}

func TestService_SubmitSwallowsNotifierErrors(t *testing.T) {
	store := storage.NewMemoryStorage()
	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(apperrors.Notifier("failed to send", errors.New("connection refused")))
	logger, hook := newTestLogger()
	service := NewService(store, notifier, nil, operator, logger)

	id, err := service.Submit(context.Background(), validSubmission())

	require.NoError(t, err)
	assert.NotEmpty(t, id)
	all, _ := store.GetAll(context.Background())
	assert.Len(t, all, 1)
	notifier.AssertNumberOfCalls(t, "Notify", 2)

	warnings := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestService_SubmitRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Submission)
		field  string
	}{
		{"empty title", func(s *Submission) { s.Title = "  " }, "title"},
		{"empty company", func(s *Submission) { s.Company = "" }, "company"},
		{"empty link", func(s *Submission) { s.Link = "" }, "link"},
		{"malformed link", func(s *Submission) { s.Link = "acme.example/jobs" }, "link"},
		{"empty email", func(s *Submission) { s.ContactEmail = "" }, "contact_email"},
		{"malformed email", func(s *Submission) { s.ContactEmail = "not-an-email" }, "contact_email"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := new(MockStore)
			notifier := new(MockNotifier)
			logger, _ := newTestLogger()
			service := NewService(store, notifier, nil, operator, logger)

			sub := validSubmission()
			tc.mutate(&sub)
			id, err := service.Submit(context.Background(), sub)

			assert.Empty(t, id)
			require.True(t, apperrors.IsValidation(err))
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Contains(t, appErr.Fields, tc.field)
			store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
			notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestService_SubmitStorageError(t *testing.T) {
	store := new(MockStore)
	store.On("Insert", mock.Anything, mock.AnythingOfType("models.JobPosting")).
		Return("", apperrors.Storage("failed to insert posting", errors.New("no reachable servers")))
	notifier := new(MockNotifier)
	logger, _ := newTestLogger()
	service := NewService(store, notifier, nil, operator, logger)

	_, err := service.Submit(context.Background(), validSubmission())

	assert.True(t, apperrors.IsStorage(err))
	assert.Contains(t, err.Error(), "failed to store submission")
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestService_SubmitTrimsInput(t *testing.T) {
	store := new(MockStore)
	store.On("Insert", mock.Anything, mock.MatchedBy(func(p models.JobPosting) bool {
		return p.Title == "Backend Engineer" && p.ContactEmail == "a@acme.example" && p.Status == models.StatusPending
	})).Return("id-1", nil)
	logger, _ := newTestLogger()
	service := NewService(store, nil, nil, "", logger)

	sub := validSubmission()
	sub.Title = "  Backend Engineer\n"
	sub.ContactEmail = " a@acme.example "
	id, err := service.Submit(context.Background(), sub)

	require.NoError(t, err)
	assert.Equal(t, "id-1", id)
	store.AssertExpectations(t)
}
