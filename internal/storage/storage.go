package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"smartcampus/backend/internal/models"
)

// ErrNotFound is returned when a complaint, comment or user does not exist.
var ErrNotFound = errors.New("not found")

type Storage interface {
	CreateComplaint(ctx context.Context, c *models.Complaint) error
	GetComplaint(ctx context.Context, id string) (*models.Complaint, error)
	ListComplaints(ctx context.Context, q models.ComplaintQuery) ([]models.Complaint, error)
	UpdateComplaintStatus(ctx context.Context, id string, status models.Status) (*models.Complaint, error)
	AddUpvote(ctx context.Context, id, uid string) (*models.Complaint, error)
	RemoveUpvote(ctx context.Context, id, uid string) (*models.Complaint, error)

	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, complaintID, commentID string) (*models.Comment, error)
	ListComments(ctx context.Context, complaintID string) ([]models.Comment, error)
	DeleteComment(ctx context.Context, complaintID, commentID string) error

	CreateNote(ctx context.Context, n *models.AdminNote) error
	ListNotes(ctx context.Context, complaintID string) ([]models.AdminNote, error)

	GetUser(ctx context.Context, uid string) (*models.User, error)
	EnsureUser(ctx context.Context, u *models.User) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SetUserRole(ctx context.Context, uid string, role models.Role) (*models.User, error)
}

// Service is the PostgreSQL implementation of Storage.
type Service struct {
	DB *gorm.DB
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Migrate creates or updates the tables for every stored model.
func (s *Service) Migrate(ctx context.Context) error {
	return s.DB.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Complaint{},
		&models.Comment{},
		&models.AdminNote{},
	)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// CreateComplaint inserts a complaint; the ID and upvote set are filled by the model hook.
func (s *Service) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	if err := s.DB.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create complaint: %w", err)
	}
	return nil
}

func (s *Service) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	var c models.Complaint
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// ListComplaints applies the query filters and ordering. Vote ordering sorts
// by the size of the upvote array, newest first on ties.
func (s *Service) ListComplaints(ctx context.Context, q models.ComplaintQuery) ([]models.Complaint, error) {
	tx := s.DB.WithContext(ctx).Model(&models.Complaint{})
	if q.CreatedBy != "" {
		tx = tx.Where("created_by = ?", q.CreatedBy)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}

	switch q.Order {
	case models.OrderVotes:
		tx = tx.Order("cardinality(upvotes) DESC").Order("created_at DESC")
	default:
		tx = tx.Order("created_at DESC")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var out []models.Complaint
	if err := tx.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	return out, nil
}

func (s *Service) UpdateComplaintStatus(ctx context.Context, id string, status models.Status) (*models.Complaint, error) {
	res := s.DB.WithContext(ctx).Model(&models.Complaint{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return nil, fmt.Errorf("update status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetComplaint(ctx, id)
}

// AddUpvote appends uid to the vote set in a single guarded statement, so
// concurrent toggles never duplicate a vote.
func (s *Service) AddUpvote(ctx context.Context, id, uid string) (*models.Complaint, error) {
	err := s.DB.WithContext(ctx).Model(&models.Complaint{}).
		Where("id = ? AND NOT (? = ANY(upvotes))", id, uid).
		Update("upvotes", gorm.Expr("array_append(upvotes, ?)", uid)).Error
	if err != nil {
		return nil, fmt.Errorf("add upvote: %w", err)
	}
	return s.GetComplaint(ctx, id)
}

func (s *Service) RemoveUpvote(ctx context.Context, id, uid string) (*models.Complaint, error) {
	err := s.DB.WithContext(ctx).Model(&models.Complaint{}).
		Where("id = ?", id).
		Update("upvotes", gorm.Expr("array_remove(upvotes, ?)", uid)).Error
	if err != nil {
		return nil, fmt.Errorf("remove upvote: %w", err)
	}
	return s.GetComplaint(ctx, id)
}

func (s *Service) CreateComment(ctx context.Context, c *models.Comment) error {
	if err := s.DB.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (s *Service) GetComment(ctx context.Context, complaintID, commentID string) (*models.Comment, error) {
	var c models.Comment
	err := s.DB.WithContext(ctx).
		Where("complaint_id = ? AND id = ?", complaintID, commentID).
		First(&c).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// ListComments returns the comments of a complaint, oldest first.
func (s *Service) ListComments(ctx context.Context, complaintID string) ([]models.Comment, error) {
	var out []models.Comment
	err := s.DB.WithContext(ctx).
		Where("complaint_id = ?", complaintID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return out, nil
}

func (s *Service) DeleteComment(ctx context.Context, complaintID, commentID string) error {
	res := s.DB.WithContext(ctx).
		Where("complaint_id = ? AND id = ?", complaintID, commentID).
		Delete(&models.Comment{})
	if res.Error != nil {
		return fmt.Errorf("delete comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) CreateNote(ctx context.Context, n *models.AdminNote) error {
	if err := s.DB.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

func (s *Service) ListNotes(ctx context.Context, complaintID string) ([]models.AdminNote, error) {
	var out []models.AdminNote
	err := s.DB.WithContext(ctx).
		Where("complaint_id = ?", complaintID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return out, nil
}

func (s *Service) GetUser(ctx context.Context, uid string) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).Where("uid = ?", uid).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// EnsureUser returns the stored profile for u.UID, creating it from u when
// it does not exist yet. New profiles always start as students.
func (s *Service) EnsureUser(ctx context.Context, u *models.User) (*models.User, error) {
	defaults := *u
	defaults.Role = models.RoleStudent

	var user models.User
	err := s.DB.WithContext(ctx).
		Where("uid = ?", u.UID).
		Attrs(defaults).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, fmt.Errorf("ensure user %s: %w", u.UID, err)
	}
	return &user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	if err := s.DB.WithContext(ctx).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (s *Service) SetUserRole(ctx context.Context, uid string, role models.Role) (*models.User, error) {
	res := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("uid = ?", uid).
		Update("role", role)
	if res.Error != nil {
		return nil, fmt.Errorf("set role: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetUser(ctx, uid)
}
