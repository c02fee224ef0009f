package service

import (
	"context"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// RequestService handles requests for items nobody offers yet and the items
// other users list in answer.
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

func (s *RequestService) CreateRequest(ctx context.Context, requesterID int64, description string) (*models.ItemRequest, error) {
	if _, err := s.repo.GetUserByID(ctx, requesterID); err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, domain.Invalid("request description is required")
	}

	request := &models.ItemRequest{
		Description: description,
		RequesterID: requesterID,
		Created:     s.now(),
		Items:       []models.Item{},
	}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("request_id", request.ID).Int64("requester_id", requesterID).Msg("item request created")
	return request, nil
}

func (s *RequestService) GetOwnRequests(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error) {
	if _, err := s.repo.GetUserByID(ctx, requesterID); err != nil {
		return nil, err
	}
	requests, err := s.repo.GetRequestsByRequester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *RequestService) GetOtherRequests(ctx context.Context, requesterID int64, from, size int) ([]*models.ItemRequest, error) {
	if _, err := s.repo.GetUserByID(ctx, requesterID); err != nil {
		return nil, err
	}
	page, err := newPage(from, size)
	if err != nil {
		return nil, err
	}
	requests, err := s.repo.GetRequestsExcept(ctx, requesterID, page)
	if err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *RequestService) GetRequest(ctx context.Context, requesterID, requestID int64) (*models.ItemRequest, error) {
	if _, err := s.repo.GetUserByID(ctx, requesterID); err != nil {
		return nil, err
	}
	request, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, []*models.ItemRequest{request}); err != nil {
		return nil, err
	}
	return request, nil
}

func (s *RequestService) attachItems(ctx context.Context, requests []*models.ItemRequest) error {
	ids := make([]int64, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, r.ID)
	}
	items, err := s.repo.GetItemsByRequests(ctx, ids)
	if err != nil {
		return err
	}

	byRequest := make(map[int64][]models.Item, len(requests))
	for _, it := range items {
		byRequest[it.RequestID] = append(byRequest[it.RequestID], *it)
	}
	for _, r := range requests {
		r.Items = byRequest[r.ID]
		if r.Items == nil {
			r.Items = []models.Item{}
		}
	}
	return nil
}

var _ domain.RequestService = (*RequestService)(nil)
