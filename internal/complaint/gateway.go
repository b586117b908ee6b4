// Package complaint holds the submission gateway, the only path through which
// a complaint is created, and the service behind the rest of the complaint
// workflow: feed, votes, comments, admin notes, triage and user management.
package complaint

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"smartcampus/backend/internal/config"
	"smartcampus/backend/internal/models"
	"smartcampus/backend/internal/moderation"
	"smartcampus/backend/internal/storage"
)

// ResultStatus is the outcome reported to the submitter.
type ResultStatus string

const (
	ResultSuccess  ResultStatus = "success"
	ResultRejected ResultStatus = "rejected"
)

// SubmitRequest is the client payload. The author is never part of it; it
// comes from the verified caller.
type SubmitRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageUrl"`
	// Language selects the message catalog for the result message.
	Language string `json:"-"`
}

// SubmitResult is returned for both accepted and rejected submissions.
type SubmitResult struct {
	Status      ResultStatus      `json:"status"`
	Reason      moderation.Reason `json:"reason,omitempty"`
	Message     string            `json:"message"`
	ComplaintID string            `json:"id,omitempty"`
}

// Gateway validates, moderates and persists new complaints.
type Gateway struct {
	moderator Moderator
	store     storage.Storage
	publisher Publisher
	notifier  Notifier
	messages  Messages
	logger    *zap.Logger
}

func NewGateway(moderator Moderator, store storage.Storage, publisher Publisher, notifier Notifier, messages Messages, logger *zap.Logger) *Gateway {
	return &Gateway{
		moderator: moderator,
		store:     store,
		publisher: publisher,
		notifier:  notifier,
		messages:  messages,
		logger:    logger,
	}
}

// Submit runs one submission attempt. Invalid or unauthenticated requests
// never reach the classifiers; rejected ones write nothing; accepted ones
// are written exactly once with the initial status. Repeating a call creates
// another complaint.
func (g *Gateway) Submit(ctx context.Context, caller *models.Caller, req SubmitRequest) (*SubmitResult, error) {
	if !caller.Authenticated() {
		return nil, newError(KindUnauthenticated, msgUnauthenticated, nil)
	}

	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" {
		return nil, newError(KindInvalidArgument, msgMissingFields, nil)
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = config.DefaultCategory
	} else if !config.IsCategory(category) {
		return nil, newError(KindInvalidArgument, msgInvalidCategory, nil)
	}

	image, err := moderation.ParseImageRef(req.ImageURL)
	if err != nil {
		return nil, newError(KindInvalidArgument, msgInvalidImage, err)
	}
	if image.Kind == moderation.ImageInline && base64.StdEncoding.DecodedLen(len(image.Data)) > config.MaxInlineImageBytes {
		return nil, newError(KindInvalidArgument, msgInvalidImage, nil)
	}

	verdict, err := g.moderator.Moderate(ctx, moderation.Candidate{
		Title:       title,
		Description: description,
		Image:       image,
	})
	if err != nil {
		g.logger.Error("Moderation unavailable",
			zap.String("uid", caller.UID),
			zap.Bool("unavailable", errors.Is(err, moderation.ErrUnavailable)),
			zap.Error(err),
		)
		return nil, newError(KindInternal, msgInternal, err)
	}

	if !verdict.Accepted() {
		key := msgRejectedText
		if verdict.Reason == moderation.ReasonImage {
			key = msgRejectedImage
		}
		g.logger.Info("Complaint rejected by moderation",
			zap.String("uid", caller.UID),
			zap.String("reason", string(verdict.Reason)),
		)
		return &SubmitResult{
			Status:  ResultRejected,
			Reason:  verdict.Reason,
			Message: g.messages.GetString(req.Language, key),
		}, nil
	}

	c := &models.Complaint{
		Title:       title,
		Description: description,
		Category:    category,
		Image:       image.Raw,
		CreatedBy:   caller.UID,
		Status:      models.InitialStatus,
	}
	if err := g.store.CreateComplaint(ctx, c); err != nil {
		g.logger.Error("Failed to store accepted complaint", zap.String("uid", caller.UID), zap.Error(err))
		return nil, newError(KindInternal, msgInternal, err)
	}

	g.logger.Info("Complaint accepted", zap.String("id", c.ID), zap.String("uid", caller.UID))
	g.announce(ctx, c)

	return &SubmitResult{
		Status:      ResultSuccess,
		Message:     g.messages.GetString(req.Language, msgSubmitted),
		ComplaintID: c.ID,
	}, nil
}

// announce is best-effort: the complaint is already stored.
func (g *Gateway) announce(ctx context.Context, c *models.Complaint) {
	ev := models.ChangeEvent{
		Topic:       models.ComplaintTopic(c.ID),
		Kind:        models.ChangeCreated,
		ComplaintID: c.ID,
		Complaint:   c,
		At:          time.Now().UTC(),
	}
	if err := g.publisher.Publish(ctx, ev); err != nil {
		g.logger.Warn("Failed to publish complaint event", zap.String("id", c.ID), zap.Error(err))
	}
	if err := g.notifier.ComplaintCreated(ctx, c); err != nil {
		g.logger.Warn("Failed to notify staff", zap.String("id", c.ID), zap.Error(err))
	}
}
