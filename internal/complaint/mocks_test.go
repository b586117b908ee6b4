package complaint_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"smartcampus/backend/internal/models"
	"smartcampus/backend/internal/moderation"
)

// MockStorage is a mock implementation of storage.Storage
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockStorage) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

func (m *MockStorage) ListComplaints(ctx context.Context, q models.ComplaintQuery) ([]models.Complaint, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Complaint), args.Error(1)
}

func (m *MockStorage) UpdateComplaintStatus(ctx context.Context, id string, status models.Status) (*models.Complaint, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

func (m *MockStorage) AddUpvote(ctx context.Context, id, uid string) (*models.Complaint, error) {
	args := m.Called(ctx, id, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

func (m *MockStorage) RemoveUpvote(ctx context.Context, id, uid string) (*models.Complaint, error) {
	args := m.Called(ctx, id, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

func (m *MockStorage) CreateComment(ctx context.Context, c *models.Comment) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockStorage) GetComment(ctx context.Context, complaintID, commentID string) (*models.Comment, error) {
	args := m.Called(ctx, complaintID, commentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *MockStorage) ListComments(ctx context.Context, complaintID string) ([]models.Comment, error) {
	args := m.Called(ctx, complaintID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Comment), args.Error(1)
}

func (m *MockStorage) DeleteComment(ctx context.Context, complaintID, commentID string) error {
	args := m.Called(ctx, complaintID, commentID)
	return args.Error(0)
}

func (m *MockStorage) CreateNote(ctx context.Context, n *models.AdminNote) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockStorage) ListNotes(ctx context.Context, complaintID string) ([]models.AdminNote, error) {
	args := m.Called(ctx, complaintID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AdminNote), args.Error(1)
}

func (m *MockStorage) GetUser(ctx context.Context, uid string) (*models.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) EnsureUser(ctx context.Context, u *models.User) (*models.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockStorage) SetUserRole(ctx context.Context, uid string, role models.Role) (*models.User, error) {
	args := m.Called(ctx, uid, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, ev models.ChangeEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) ComplaintCreated(ctx context.Context, c *models.Complaint) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockNotifier) StatusChanged(ctx context.Context, c *models.Complaint, by string) error {
	args := m.Called(ctx, c, by)
	return args.Error(0)
}

type MockTextClassifier struct {
	mock.Mock
}

func (m *MockTextClassifier) Classify(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type MockImageClassifier struct {
	mock.Mock
}

func (m *MockImageClassifier) SafeSearch(ctx context.Context, ref moderation.ImageRef) (moderation.SafeSearch, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(moderation.SafeSearch), args.Error(1)
}

// keyMessages echoes the catalog key with the language, so tests can assert which message was chosen.
type keyMessages struct{}

func (keyMessages) GetString(lang, key string) string { return lang + ":" + key }
