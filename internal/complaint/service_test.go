package complaint_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smartcampus/backend/internal/complaint"
	"smartcampus/backend/internal/models"
	"smartcampus/backend/internal/storage"
)

func newService() (*complaint.Service, *MockStorage, *MockPublisher, *MockNotifier) {
	store := new(MockStorage)
	publisher := new(MockPublisher)
	notifier := new(MockNotifier)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	return complaint.NewService(store, publisher, notifier, zap.NewNop()), store, publisher, notifier
}

func admin() *models.Caller {
	return &models.Caller{UID: "uid-admin", Email: "admin@campus.edu", Role: models.RoleAdmin}
}

func TestService_Identify(t *testing.T) {
	s, store, _, _ := newService()
	caller := &models.Caller{UID: "uid-1", Email: "a@campus.edu", Name: "Ann"}
	store.On("EnsureUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.UID == "uid-1" && u.Email == "a@campus.edu" && u.Role == models.RoleStudent
	})).Return(&models.User{UID: "uid-1", Role: models.RoleAdmin}, nil)

	u, err := s.Identify(context.Background(), caller)

	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.True(t, caller.IsAdmin())
}

func TestService_GetNotFound(t *testing.T) {
	s, store, _, _ := newService()
	store.On("GetComplaint", mock.Anything, "missing").Return(nil, storage.ErrNotFound)

	_, err := s.Get(context.Background(), "missing")

	assert.Equal(t, complaint.KindNotFound, complaint.KindOf(err))
}

func TestService_FeedDefaultsToRecent(t *testing.T) {
	s, store, _, _ := newService()
	store.On("ListComplaints", mock.Anything, models.ComplaintQuery{Order: models.OrderRecent}).
		Return([]models.Complaint{{ID: "a"}}, nil).Once()

	list, err := s.Feed(context.Background(), "bogus")

	require.NoError(t, err)
	assert.Len(t, list, 1)
	store.AssertExpectations(t)
}

func TestService_TrendingAndStats(t *testing.T) {
	s, store, _, _ := newService()
	store.On("ListComplaints", mock.Anything, models.ComplaintQuery{Order: models.OrderRecent}).Return([]models.Complaint{
		{ID: "a", Status: models.StatusResolved},
		{ID: "b", Status: models.StatusPending, Upvotes: pq.StringArray{"u1", "u2"}},
		{ID: "c", Status: models.StatusOpen, Upvotes: pq.StringArray{"u1"}},
		{ID: "d", Status: models.StatusResolved},
	}, nil)

	top, err := s.Trending(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].ID)
	assert.Equal(t, "c", top[1].ID)

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 50, st.Progress)
	assert.Equal(t, 2, st.ByStatus[models.StatusResolved])
}

func TestService_MineRequiresCaller(t *testing.T) {
	s, store, _, _ := newService()

	_, err := s.Mine(context.Background(), nil)
	assert.Equal(t, complaint.KindUnauthenticated, complaint.KindOf(err))

	store.On("ListComplaints", mock.Anything, models.ComplaintQuery{CreatedBy: "uid-student", Order: models.OrderRecent}).
		Return([]models.Complaint{}, nil).Once()
	_, err = s.Mine(context.Background(), student())
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestService_SetStatus(t *testing.T) {
	t.Run("admin", func(t *testing.T) {
		s, store, publisher, notifier := newService()
		updated := &models.Complaint{ID: "c1", Status: models.StatusResolved}
		store.On("UpdateComplaintStatus", mock.Anything, "c1", models.StatusResolved).Return(updated, nil)
		notifier.On("StatusChanged", mock.Anything, updated, "admin@campus.edu").Return(nil).Once()

		c, err := s.SetStatus(context.Background(), admin(), "c1", models.StatusResolved)

		require.NoError(t, err)
		assert.Equal(t, models.StatusResolved, c.Status)
		notifier.AssertExpectations(t)
		publisher.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(ev models.ChangeEvent) bool {
			return ev.Topic == models.ComplaintTopic("c1") && ev.Kind == models.ChangeUpdated
		}))
	})

	t.Run("student is denied", func(t *testing.T) {
		s, store, _, _ := newService()

		_, err := s.SetStatus(context.Background(), student(), "c1", models.StatusResolved)

		assert.Equal(t, complaint.KindPermissionDenied, complaint.KindOf(err))
		store.AssertNotCalled(t, "UpdateComplaintStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown status", func(t *testing.T) {
		s, _, _, _ := newService()

		_, err := s.SetStatus(context.Background(), admin(), "c1", "done")

		assert.Equal(t, complaint.KindInvalidArgument, complaint.KindOf(err))
	})

	t.Run("notifier failure is ignored", func(t *testing.T) {
		s, store, _, notifier := newService()
		store.On("UpdateComplaintStatus", mock.Anything, "c1", models.StatusClosed).
			Return(&models.Complaint{ID: "c1", Status: models.StatusClosed}, nil)
		notifier.On("StatusChanged", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("down"))

		_, err := s.SetStatus(context.Background(), admin(), "c1", models.StatusClosed)

		assert.NoError(t, err)
	})
}

func TestService_ToggleUpvote(t *testing.T) {
	ctx := context.Background()

	t.Run("adds missing vote", func(t *testing.T) {
		s, store, _, _ := newService()
		store.On("GetComplaint", mock.Anything, "c1").Return(&models.Complaint{ID: "c1", Upvotes: pq.StringArray{}}, nil)
		store.On("AddUpvote", mock.Anything, "c1", "uid-student").
			Return(&models.Complaint{ID: "c1", Upvotes: pq.StringArray{"uid-student"}}, nil).Once()

		c, err := s.ToggleUpvote(ctx, student(), "c1")

		require.NoError(t, err)
		assert.True(t, c.HasUpvote("uid-student"))
		store.AssertNotCalled(t, "RemoveUpvote", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("removes existing vote", func(t *testing.T) {
		s, store, _, _ := newService()
		store.On("GetComplaint", mock.Anything, "c1").Return(&models.Complaint{ID: "c1", Upvotes: pq.StringArray{"uid-student"}}, nil)
		store.On("RemoveUpvote", mock.Anything, "c1", "uid-student").
			Return(&models.Complaint{ID: "c1", Upvotes: pq.StringArray{}}, nil).Once()

		c, err := s.ToggleUpvote(ctx, student(), "c1")

		require.NoError(t, err)
		assert.False(t, c.HasUpvote("uid-student"))
		store.AssertNotCalled(t, "AddUpvote", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_Comments(t *testing.T) {
	ctx := context.Background()

	t.Run("add trims text", func(t *testing.T) {
		s, store, publisher, _ := newService()
		store.On("GetComplaint", mock.Anything, "c1").Return(&models.Complaint{ID: "c1"}, nil)
		store.On("CreateComment", mock.Anything, mock.MatchedBy(func(c *models.Comment) bool {
			return c.Text == "same here" && c.CreatedBy == "uid-student" && c.ComplaintID == "c1"
		})).Return(nil).Once()

		_, err := s.AddComment(ctx, student(), "c1", "  same here ")

		require.NoError(t, err)
		store.AssertExpectations(t)
		publisher.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(ev models.ChangeEvent) bool {
			return ev.Topic == models.CommentsTopic("c1") && ev.Kind == models.ChangeCreated
		}))
	})

	t.Run("empty text", func(t *testing.T) {
		s, _, _, _ := newService()
		_, err := s.AddComment(ctx, student(), "c1", "   ")
		assert.Equal(t, complaint.KindInvalidArgument, complaint.KindOf(err))
	})

	t.Run("unknown complaint", func(t *testing.T) {
		s, store, _, _ := newService()
		store.On("GetComplaint", mock.Anything, "nope").Return(nil, storage.ErrNotFound)
		_, err := s.AddComment(ctx, student(), "nope", "hi")
		assert.Equal(t, complaint.KindNotFound, complaint.KindOf(err))
	})

	t.Run("delete by stranger is denied", func(t *testing.T) {
		s, store, _, _ := newService()
		store.On("GetComment", mock.Anything, "c1", "m1").Return(&models.Comment{ID: "m1", CreatedBy: "someone-else"}, nil)

		err := s.DeleteComment(ctx, student(), "c1", "m1")

		assert.Equal(t, complaint.KindPermissionDenied, complaint.KindOf(err))
		store.AssertNotCalled(t, "DeleteComment", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("delete by author and admin", func(t *testing.T) {
		for _, caller := range []*models.Caller{student(), admin()} {
			s, store, _, _ := newService()
			store.On("GetComment", mock.Anything, "c1", "m1").Return(&models.Comment{ID: "m1", CreatedBy: "uid-student"}, nil)
			store.On("DeleteComment", mock.Anything, "c1", "m1").Return(nil).Once()

			require.NoError(t, s.DeleteComment(ctx, caller, "c1", "m1"))
			store.AssertExpectations(t)
		}
	})
}

func TestService_NotesAreAdminOnly(t *testing.T) {
	ctx := context.Background()
	s, store, _, _ := newService()

	_, err := s.AddNote(ctx, student(), "c1", "internal")
	assert.Equal(t, complaint.KindPermissionDenied, complaint.KindOf(err))
	_, err = s.ListNotes(ctx, student(), "c1")
	assert.Equal(t, complaint.KindPermissionDenied, complaint.KindOf(err))

	store.On("GetComplaint", mock.Anything, "c1").Return(&models.Complaint{ID: "c1"}, nil)
	store.On("CreateNote", mock.Anything, mock.AnythingOfType("*models.AdminNote")).Return(nil)
	store.On("ListNotes", mock.Anything, "c1").Return([]models.AdminNote{{Text: "internal"}}, nil)

	_, err = s.AddNote(ctx, admin(), "c1", "internal")
	require.NoError(t, err)
	notes, err := s.ListNotes(ctx, admin(), "c1")
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func adminFixture(store *MockStorage, n int) {
	list := make([]models.Complaint, 0, n)
	for i := 0; i < n; i++ {
		by := "uid-a"
		if i%2 == 1 {
			by = "uid-b"
		}
		list = append(list, models.Complaint{
			ID:          fmt.Sprintf("c%d", i),
			Title:       fmt.Sprintf("Complaint %d", i),
			Description: "Lights are out",
			Category:    "Facility",
			Status:      models.StatusOpen,
			CreatedBy:   by,
			CreatedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		})
	}
	store.On("ListComplaints", mock.Anything, mock.Anything).Return(list, nil)
	store.On("ListUsers", mock.Anything).Return([]models.User{
		{UID: "uid-a", Name: "Alice", Email: "alice@campus.edu"},
		{UID: "uid-b", Name: "Bohdan", Email: "bohdan@campus.edu"},
	}, nil)
}

func TestService_AdminListPaginatesAndSearches(t *testing.T) {
	ctx := context.Background()
	s, store, _, _ := newService()
	adminFixture(store, 23)

	page, err := s.AdminList(ctx, admin(), complaint.AdminQuery{Page: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, 23, page.Total)
	assert.Len(t, page.Items, 3)

	page, err = s.AdminList(ctx, admin(), complaint.AdminQuery{Search: "BOHDAN"})
	require.NoError(t, err)
	assert.Equal(t, 11, page.Total)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, "bohdan@campus.edu", page.Items[0].AuthorEmail)

	page, err = s.AdminList(ctx, admin(), complaint.AdminQuery{Search: "nothing matches"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Empty(t, page.Items)

	_, err = s.AdminList(ctx, student(), complaint.AdminQuery{})
	assert.Equal(t, complaint.KindPermissionDenied, complaint.KindOf(err))
}

func TestService_ExportCSV(t *testing.T) {
	s, store, _, _ := newService()
	long := strings.Repeat("x", 200)
	store.On("ListComplaints", mock.Anything, mock.Anything).Return([]models.Complaint{{
		Title:       `Say "hi"`,
		Description: long,
		Category:    "Academics",
		Status:      models.StatusResolved,
		CreatedBy:   "uid-a",
		CreatedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}}, nil)
	store.On("ListUsers", mock.Anything).Return([]models.User{{UID: "uid-a", Name: "Alice", Email: "alice@campus.edu"}}, nil)

	var buf bytes.Buffer
	require.NoError(t, s.ExportCSV(context.Background(), admin(), &buf, complaint.AdminQuery{}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"title", "description", "category", "status", "author_name", "author_email", "createdAt"}, records[0])
	assert.Equal(t, `Say "hi"`, records[1][0])
	assert.Equal(t, strings.Repeat("x", 140)+"…", records[1][1])
	assert.Equal(t, "Alice", records[1][4])
	assert.Equal(t, "2026-03-01T10:00:00Z", records[1][6])
}

func TestService_SetRole(t *testing.T) {
	ctx := context.Background()
	s, store, publisher, _ := newService()

	_, err := s.SetRole(ctx, admin(), "uid-1", "owner")
	assert.Equal(t, complaint.KindInvalidArgument, complaint.KindOf(err))

	_, err = s.SetRole(ctx, student(), "uid-1", models.RoleAdmin)
	assert.Equal(t, complaint.KindPermissionDenied, complaint.KindOf(err))

	store.On("SetUserRole", mock.Anything, "uid-1", models.RoleAdmin).Return(&models.User{UID: "uid-1", Role: models.RoleAdmin}, nil)
	u, err := s.SetRole(ctx, admin(), "uid-1", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	publisher.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(ev models.ChangeEvent) bool {
		return ev.Topic == models.TopicUsers
	}))
}
