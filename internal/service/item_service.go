package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type ItemService struct {
	repo       domain.Repository
	aggregator *BookingAggregator
	eventBus   domain.EventPublisher
	logger     *zerolog.Logger
	now        func() time.Time
}

func NewItemService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *ItemService {
	return &ItemService{
		repo:       repo,
		aggregator: NewBookingAggregator(repo),
		eventBus:   eventBus,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *ItemService) CreateItem(ctx context.Context, item *models.Item, ownerID int64) (*models.Item, error) {
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}

	if strings.TrimSpace(item.Name) == "" || strings.TrimSpace(item.Description) == "" {
		return nil, fmt.Errorf("%w: item name and description are required", domain.ErrValidation)
	}

	if item.RequestID != nil {
		if _, err := s.repo.GetRequestByID(ctx, *item.RequestID); err != nil {
			return nil, err
		}
	}

	item.OwnerID = ownerID
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("item_id", item.ID).Int64("owner_id", ownerID).Msg("item created")
	return item, nil
}

// UpdateItem applies a partial update. Blank strings leave the field unchanged.
func (s *ItemService) UpdateItem(ctx context.Context, itemID, ownerID int64, patch models.ItemPatch) (*models.Item, error) {
	item, err := s.ownedItem(ctx, itemID, ownerID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		item.Name = *patch.Name
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) != "" {
		item.Description = *patch.Description
	}
	if patch.Available != nil {
		item.Available = *patch.Available
	}

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ItemService) DeleteItem(ctx context.Context, itemID, ownerID int64) error {
	if _, err := s.ownedItem(ctx, itemID, ownerID); err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	s.logger.Info().Int64("item_id", itemID).Int64("owner_id", ownerID).Msg("item deleted")
	return nil
}

func (s *ItemService) ownedItem(ctx context.Context, itemID, ownerID int64) (*models.Item, error) {
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: user %d does not own item %d", domain.ErrForbidden, ownerID, itemID)
	}
	return item, nil
}

// GetItem returns an item with its comments. Booking windows are only
// revealed to the owner.
func (s *ItemService) GetItem(ctx context.Context, itemID, userID int64) (*models.ItemDetails, error) {
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	details, err := s.details(ctx, []*models.Item{item}, item.OwnerID == userID)
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

// GetOwnerItems lists the owner's items, ordered by id, with booking windows.
func (s *ItemService) GetOwnerItems(ctx context.Context, ownerID int64, page models.Page) ([]*models.ItemDetails, error) {
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}
	if err := ValidatePage(page); err != nil {
		return nil, err
	}

	items, err := s.repo.GetItemsByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, items, true)
}

func (s *ItemService) details(ctx context.Context, items []*models.Item, withBookings bool) ([]*models.ItemDetails, error) {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}

	comments, err := s.repo.GetCommentsByItemIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	commentsByItem := make(map[int64][]*models.Comment)
	for _, c := range comments {
		commentsByItem[c.ItemID] = append(commentsByItem[c.ItemID], c)
	}

	var windows map[int64]ItemBookings
	if withBookings {
		windows, err = s.aggregator.ForItems(ctx, ids, s.now().UTC())
		if err != nil {
			return nil, err
		}
	}

	result := make([]*models.ItemDetails, 0, len(items))
	for _, item := range items {
		d := &models.ItemDetails{Item: *item, Comments: commentsByItem[item.ID]}
		if d.Comments == nil {
			d.Comments = []*models.Comment{}
		}
		if w, ok := windows[item.ID]; ok {
			d.LastBooking = w.Last
			d.NextBooking = w.Next
		}
		result = append(result, d)
	}
	return result, nil
}

// SearchItems finds available items by name or description. Blank text
// matches nothing.
func (s *ItemService) SearchItems(ctx context.Context, text string, page models.Page) ([]*models.Item, error) {
	if err := ValidatePage(page); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return []*models.Item{}, nil
	}
	return s.repo.SearchItems(ctx, text, page)
}
