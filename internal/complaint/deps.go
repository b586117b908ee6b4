package complaint

import (
	"context"

	"smartcampus/backend/internal/models"
	"smartcampus/backend/internal/moderation"
)

// Moderator decides whether a candidate may be stored.
type Moderator interface {
	Moderate(ctx context.Context, c moderation.Candidate) (moderation.Verdict, error)
}

// Publisher delivers change events to realtime subscribers.
type Publisher interface {
	Publish(ctx context.Context, ev models.ChangeEvent) error
}

// Notifier tells campus staff about new complaints and status changes.
type Notifier interface {
	ComplaintCreated(ctx context.Context, c *models.Complaint) error
	StatusChanged(ctx context.Context, c *models.Complaint, by string) error
}

// Messages looks up localized user-facing text.
type Messages interface {
	GetString(lang, key string) string
}
