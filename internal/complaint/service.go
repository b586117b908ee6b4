package complaint

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"smartcampus/backend/internal/analysis"
	"smartcampus/backend/internal/config"
	"smartcampus/backend/internal/models"
	"smartcampus/backend/internal/storage"
)

// Service handles everything that happens to a complaint after it was
// created by the Gateway.
type Service struct {
	store     storage.Storage
	publisher Publisher
	notifier  Notifier
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new complaint service.
func NewService(store storage.Storage, publisher Publisher, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Stats is the summary shown next to the feed.
type Stats struct {
	Total    int                   `json:"total"`
	Progress int                   `json:"progress"`
	ByStatus map[models.Status]int `json:"byStatus"`
}

func storeError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return newError(KindNotFound, msgNotFound, err)
	}
	return newError(KindInternal, msgInternal, err)
}

func requireCaller(caller *models.Caller) error {
	if !caller.Authenticated() {
		return newError(KindUnauthenticated, msgUnauthenticated, nil)
	}
	return nil
}

func requireAdmin(caller *models.Caller) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if !caller.IsAdmin() {
		return newError(KindPermissionDenied, msgPermissionDenied, nil)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, ev models.ChangeEvent) {
	ev.At = s.now().UTC()
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("Failed to publish change event", zap.String("topic", ev.Topic), zap.Error(err))
	}
}

func (s *Service) publishComplaint(ctx context.Context, kind models.ChangeKind, c *models.Complaint) {
	s.publish(ctx, models.ChangeEvent{
		Topic:       models.ComplaintTopic(c.ID),
		Kind:        kind,
		ComplaintID: c.ID,
		Complaint:   c,
	})
}

// Identify loads the caller's profile, creating it on first sign-in, and
// copies the stored role onto the caller.
func (s *Service) Identify(ctx context.Context, caller *models.Caller) (*models.User, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	u, err := s.store.EnsureUser(ctx, &models.User{
		UID:    caller.UID,
		Name:   caller.Name,
		Email:  caller.Email,
		Avatar: caller.Avatar,
		Role:   models.RoleStudent,
	})
	if err != nil {
		return nil, storeError(err)
	}
	caller.Role = u.Role
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Complaint, error) {
	c, err := s.store.GetComplaint(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return c, nil
}

// Feed lists every complaint, newest first or by votes.
func (s *Service) Feed(ctx context.Context, order models.ComplaintOrder) ([]models.Complaint, error) {
	if order != models.OrderVotes {
		order = models.OrderRecent
	}
	list, err := s.store.ListComplaints(ctx, models.ComplaintQuery{Order: order})
	if err != nil {
		return nil, storeError(err)
	}
	return list, nil
}

// Mine lists the caller's own complaints, newest first.
func (s *Service) Mine(ctx context.Context, caller *models.Caller) ([]models.Complaint, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	list, err := s.store.ListComplaints(ctx, models.ComplaintQuery{CreatedBy: caller.UID, Order: models.OrderRecent})
	if err != nil {
		return nil, storeError(err)
	}
	return list, nil
}

// Trending returns the n most upvoted complaints; ties go to the newer one.
func (s *Service) Trending(ctx context.Context, n int) ([]models.Complaint, error) {
	if n <= 0 {
		n = config.TrendingSize
	}
	list, err := s.Feed(ctx, models.OrderRecent)
	if err != nil {
		return nil, err
	}
	return analysis.Trending(list, n), nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	list, err := s.Feed(ctx, models.OrderRecent)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Total:    len(list),
		Progress: analysis.Progress(list),
		ByStatus: analysis.StatusCounts(list),
	}, nil
}

// Progress is the resolved percentage over all complaints.
func (s *Service) Progress(ctx context.Context) (int, error) {
	st, err := s.Stats(ctx)
	if err != nil {
		return 0, err
	}
	return st.Progress, nil
}

// SetStatus moves a complaint through the triage workflow. Admin only.
func (s *Service) SetStatus(ctx context.Context, caller *models.Caller, id string, status models.Status) (*models.Complaint, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, newError(KindInvalidArgument, msgInvalidStatus, nil)
	}

	c, err := s.store.UpdateComplaintStatus(ctx, id, status)
	if err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("Complaint status changed", zap.String("id", id), zap.String("status", string(status)), zap.String("by", caller.UID))
	s.publishComplaint(ctx, models.ChangeUpdated, c)

	by := caller.Email
	if by == "" {
		by = caller.UID
	}
	if err := s.notifier.StatusChanged(ctx, c, by); err != nil {
		s.logger.Warn("Failed to notify staff", zap.String("id", id), zap.Error(err))
	}
	return c, nil
}

// ToggleUpvote adds the caller's vote, or removes it when already present.
func (s *Service) ToggleUpvote(ctx context.Context, caller *models.Caller, id string) (*models.Complaint, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	c, err := s.store.GetComplaint(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}

	if c.HasUpvote(caller.UID) {
		c, err = s.store.RemoveUpvote(ctx, id, caller.UID)
	} else {
		c, err = s.store.AddUpvote(ctx, id, caller.UID)
	}
	if err != nil {
		return nil, storeError(err)
	}

	s.publishComplaint(ctx, models.ChangeUpdated, c)
	return c, nil
}

func (s *Service) AddComment(ctx context.Context, caller *models.Caller, complaintID, text string) (*models.Comment, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, newError(KindInvalidArgument, msgEmptyText, nil)
	}
	if _, err := s.store.GetComplaint(ctx, complaintID); err != nil {
		return nil, storeError(err)
	}

	cm := &models.Comment{ComplaintID: complaintID, Text: text, CreatedBy: caller.UID}
	if err := s.store.CreateComment(ctx, cm); err != nil {
		return nil, storeError(err)
	}

	s.publish(ctx, models.ChangeEvent{
		Topic:       models.CommentsTopic(complaintID),
		Kind:        models.ChangeCreated,
		ComplaintID: complaintID,
		Comment:     cm,
	})
	return cm, nil
}

// ListComments returns the comments of a complaint, oldest first.
func (s *Service) ListComments(ctx context.Context, complaintID string) ([]models.Comment, error) {
	list, err := s.store.ListComments(ctx, complaintID)
	if err != nil {
		return nil, storeError(err)
	}
	return list, nil
}

// DeleteComment removes a comment. Only its author or an admin may do so.
func (s *Service) DeleteComment(ctx context.Context, caller *models.Caller, complaintID, commentID string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	cm, err := s.store.GetComment(ctx, complaintID, commentID)
	if err != nil {
		return storeError(err)
	}
	if cm.CreatedBy != caller.UID && !caller.IsAdmin() {
		return newError(KindPermissionDenied, msgPermissionDenied, nil)
	}
	if err := s.store.DeleteComment(ctx, complaintID, commentID); err != nil {
		return storeError(err)
	}

	s.publish(ctx, models.ChangeEvent{
		Topic:       models.CommentsTopic(complaintID),
		Kind:        models.ChangeDeleted,
		ComplaintID: complaintID,
		Comment:     cm,
	})
	return nil
}

// AddNote attaches an internal note. Admin only.
func (s *Service) AddNote(ctx context.Context, caller *models.Caller, complaintID, text string) (*models.AdminNote, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, newError(KindInvalidArgument, msgEmptyText, nil)
	}
	if _, err := s.store.GetComplaint(ctx, complaintID); err != nil {
		return nil, storeError(err)
	}

	n := &models.AdminNote{ComplaintID: complaintID, Text: text, CreatedBy: caller.UID}
	if err := s.store.CreateNote(ctx, n); err != nil {
		return nil, storeError(err)
	}

	s.publish(ctx, models.ChangeEvent{
		Topic:       models.NotesTopic(complaintID),
		Kind:        models.ChangeCreated,
		ComplaintID: complaintID,
		Note:        n,
	})
	return n, nil
}

func (s *Service) ListNotes(ctx context.Context, caller *models.Caller, complaintID string) ([]models.AdminNote, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	list, err := s.store.ListNotes(ctx, complaintID)
	if err != nil {
		return nil, storeError(err)
	}
	return list, nil
}
