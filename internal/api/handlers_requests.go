package api

import (
	"context"
	"net/http"

	"shareit/internal/models"
)

func (s *HTTPServer) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var req itemRequestCreateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	request, err := s.svc.Requests.CreateRequest(r.Context(), req.Description, userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newItemRequestResponse(request))
}

func (s *HTTPServer) handleListOwnRequests(w http.ResponseWriter, r *http.Request) {
	s.listRequests(w, r, s.svc.Requests.GetOwnRequests)
}

func (s *HTTPServer) handleListOtherRequests(w http.ResponseWriter, r *http.Request) {
	s.listRequests(w, r, s.svc.Requests.GetOtherRequests)
}

func (s *HTTPServer) listRequests(
	w http.ResponseWriter,
	r *http.Request,
	list func(ctx context.Context, userID int64, page models.Page) ([]*models.ItemRequest, error),
) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	page, err := s.pageFromQuery(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	requests, err := list(r.Context(), userID, page)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]itemRequestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, newItemRequestResponse(req))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	requestID, err := pathID(r, "id")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	request, err := s.svc.Requests.GetRequest(r.Context(), requestID, userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newItemRequestResponse(request))
}
