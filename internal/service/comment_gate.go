package service

import (
	"context"
	"fmt"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/logging"
	"shareit/internal/metrics"
	"shareit/internal/models"
)

// CreateComment accepts a comment only from a user whose approved booking of
// the item has already ended.
func (s *ItemService) CreateComment(ctx context.Context, itemID, authorID int64, text string) (*models.Comment, error) {
	author, err := s.repo.GetUserByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text is required", domain.ErrValidation)
	}

	now := s.now().UTC()
	finished, err := s.repo.HasFinishedBooking(ctx, author.ID, item.ID, now)
	if err != nil {
		return nil, err
	}
	if !finished {
		logging.FromContext(ctx, s.logger).Warn().Int64("item_id", item.ID).Int64("user_id", author.ID).Msg("comment without finished booking")
		return nil, fmt.Errorf("%w: user %d has no finished booking of item %d", domain.ErrBadRequest, author.ID, item.ID)
	}

	comment := &models.Comment{
		Text:     text,
		ItemID:   item.ID,
		AuthorID: author.ID,
		Created:  now,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	comment.AuthorName = author.Name

	metrics.IncCommentCreated()
	if s.eventBus != nil {
		payload := events.CommentEventPayload{
			CommentID: comment.ID,
			ItemID:    item.ID,
			AuthorID:  author.ID,
			Created:   comment.Created,
		}
		if err := s.eventBus.PublishJSON(events.EventCommentCreated, payload); err != nil {
			s.logger.Error().Err(err).Int64("comment_id", comment.ID).Msg("publish event error")
		}
	}

	return comment, nil
}
