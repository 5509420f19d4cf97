package api

import (
	"net/http"

	"shareit/internal/models"
)

func (s *HTTPServer) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var req itemCreateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	item, err := s.svc.Items.CreateItem(r.Context(), &models.Item{
		Name:        req.Name,
		Description: req.Description,
		Available:   *req.Available,
		RequestID:   req.RequestID,
	}, userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newItemResponse(item))
}

func (s *HTTPServer) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	itemID, err := pathID(r, "id")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var req itemUpdateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	item, err := s.svc.Items.UpdateItem(r.Context(), itemID, userID, models.ItemPatch{
		Name:        req.Name,
		Description: req.Description,
		Available:   req.Available,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newItemResponse(item))
}

func (s *HTTPServer) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	itemID, err := pathID(r, "id")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if err := s.svc.Items.DeleteItem(r.Context(), itemID, userID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleGetItem(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	itemID, err := pathID(r, "id")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	details, err := s.svc.Items.GetItem(r.Context(), itemID, userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newItemDetailsResponse(details))
}

func (s *HTTPServer) handleListOwnerItems(w http.ResponseWriter, r *http.Request) {
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

	items, err := s.svc.Items.GetOwnerItems(r.Context(), userID, page)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]itemDetailsResponse, 0, len(items))
	for _, d := range items {
		out = append(out, newItemDetailsResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	page, err := s.pageFromQuery(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	items, err := s.svc.Items.SearchItems(r.Context(), r.URL.Query().Get("text"), page)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newItemResponses(items))
}

func (s *HTTPServer) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	itemID, err := pathID(r, "id")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var req commentCreateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	comment, err := s.svc.Items.CreateComment(r.Context(), itemID, userID, req.Text)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCommentResponse(comment))
}
