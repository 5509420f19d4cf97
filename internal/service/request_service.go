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

type RequestService struct {
	repo   domain.Repository
	logger *zerolog.Logger
	now    func() time.Time
}

func NewRequestService(repo domain.Repository, logger *zerolog.Logger) *RequestService {
	return &RequestService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *RequestService) CreateRequest(ctx context.Context, description string, requesterID int64) (*models.ItemRequest, error) {
	if _, err := s.repo.GetUserByID(ctx, requesterID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: request description is required", domain.ErrValidation)
	}

	request := &models.ItemRequest{
		Description: description,
		RequesterID: requesterID,
		Created:     s.now().UTC(),
		Items:       []*models.Item{},
	}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("request_id", request.ID).Int64("requester_id", requesterID).Msg("item request created")
	return request, nil
}

// GetOwnRequests lists the requester's requests, newest first.
func (s *RequestService) GetOwnRequests(ctx context.Context, requesterID int64, page models.Page) ([]*models.ItemRequest, error) {
	if _, err := s.repo.GetUserByID(ctx, requesterID); err != nil {
		return nil, err
	}
	if err := ValidatePage(page); err != nil {
		return nil, err
	}

	requests, err := s.repo.GetRequestsByRequester(ctx, requesterID, page)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, requests)
}

// GetOtherRequests lists requests made by everyone except userID, newest first.
func (s *RequestService) GetOtherRequests(ctx context.Context, userID int64, page models.Page) ([]*models.ItemRequest, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	if err := ValidatePage(page); err != nil {
		return nil, err
	}

	requests, err := s.repo.GetRequestsExcept(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, requests)
}

func (s *RequestService) GetRequest(ctx context.Context, requestID, userID int64) (*models.ItemRequest, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	request, err := s.repo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	requests, err := s.withItems(ctx, []*models.ItemRequest{request})
	if err != nil {
		return nil, err
	}
	return requests[0], nil
}

func (s *RequestService) withItems(ctx context.Context, requests []*models.ItemRequest) ([]*models.ItemRequest, error) {
	if len(requests) == 0 {
		return requests, nil
	}

	ids := make([]int64, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, r.ID)
	}

	items, err := s.repo.GetItemsByRequestIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byRequest := make(map[int64][]*models.Item)
	for _, item := range items {
		if item.RequestID != nil {
			byRequest[*item.RequestID] = append(byRequest[*item.RequestID], item)
		}
	}

	for _, r := range requests {
		r.Items = byRequest[r.ID]
		if r.Items == nil {
			r.Items = []*models.Item{}
		}
	}
	return requests, nil
}
