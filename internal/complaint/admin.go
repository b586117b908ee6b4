package complaint

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"smartcampus/backend/internal/analysis"
	"smartcampus/backend/internal/config"
	"smartcampus/backend/internal/models"
)

// AdminQuery filters the admin dashboard. Page is 1-based.
type AdminQuery struct {
	Search   string
	Category string
	Status   models.Status
	Page     int
}

// AdminRow is a complaint joined with its author's profile.
type AdminRow struct {
	models.Complaint
	AuthorName  string `json:"authorName"`
	AuthorEmail string `json:"authorEmail"`
}

type AdminPage struct {
	Items []AdminRow `json:"items"`
	Page  int        `json:"page"`
	Pages int        `json:"pages"`
	Total int        `json:"total"`
}

var exportHeader = []string{"title", "description", "category", "status", "author_name", "author_email", "createdAt"}

// adminRows returns the filtered complaints, newest first.
func (s *Service) adminRows(ctx context.Context, q AdminQuery) ([]AdminRow, error) {
	list, err := s.store.ListComplaints(ctx, models.ComplaintQuery{
		Category: q.Category,
		Status:   q.Status,
		Order:    models.OrderRecent,
	})
	if err != nil {
		return nil, storeError(err)
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, storeError(err)
	}

	byUID := make(map[string]models.User, len(users))
	for _, u := range users {
		byUID[u.UID] = u
	}

	term := strings.ToLower(strings.TrimSpace(q.Search))
	rows := make([]AdminRow, 0, len(list))
	for _, c := range list {
		author := byUID[c.CreatedBy]
		if term != "" && !matchesSearch(term, c.Title, c.Description, author.Name, author.Email) {
			continue
		}
		rows = append(rows, AdminRow{Complaint: c, AuthorName: author.Name, AuthorEmail: author.Email})
	}
	return rows, nil
}

func matchesSearch(term string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// AdminList returns one page of the admin dashboard. Admin only.
func (s *Service) AdminList(ctx context.Context, caller *models.Caller, q AdminQuery) (*AdminPage, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	rows, err := s.adminRows(ctx, q)
	if err != nil {
		return nil, err
	}

	pages := (len(rows) + config.AdminPageSize - 1) / config.AdminPageSize
	if pages == 0 {
		pages = 1
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * config.AdminPageSize
	end := start + config.AdminPageSize
	if end > len(rows) {
		end = len(rows)
	}

	return &AdminPage{Items: rows[start:end], Page: page, Pages: pages, Total: len(rows)}, nil
}

// ExportCSV writes every complaint matching q (ignoring Page) as CSV. Admin only.
func (s *Service) ExportCSV(ctx context.Context, caller *models.Caller, w io.Writer, q AdminQuery) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	rows, err := s.adminRows(ctx, q)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		created := ""
		if !r.CreatedAt.IsZero() {
			created = r.CreatedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			r.Title,
			analysis.ShortenText(r.Description, config.ExportDescriptionRunes),
			r.Category,
			string(r.Status),
			r.AuthorName,
			r.AuthorEmail,
			created,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Users lists every profile. Admin only.
func (s *Service) Users(ctx context.Context, caller *models.Caller) ([]models.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return users, nil
}

// SetRole changes a user's role. Admin only.
func (s *Service) SetRole(ctx context.Context, caller *models.Caller, uid string, role models.Role) (*models.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, newError(KindInvalidArgument, msgInvalidRole, nil)
	}
	u, err := s.store.SetUserRole(ctx, uid, role)
	if err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("User role changed", zap.String("uid", uid), zap.String("role", string(role)), zap.String("by", caller.UID))
	s.publish(ctx, models.ChangeEvent{Topic: models.TopicUsers, Kind: models.ChangeUpdated, User: u})
	return u, nil
}
