package api

import (
	"net/http"

	"shareit/internal/models"
)

func (s *HTTPServer) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userCreateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	user, err := s.svc.Users.CreateUser(r.Context(), &models.User{Name: req.Name, Email: req.Email})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newUserResponse(user))
}

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.Users.GetAllUsers(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	user, err := s.svc.Users.GetUserByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}

func (s *HTTPServer) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var req userUpdateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	user, err := s.svc.Users.UpdateUser(r.Context(), id, models.UserPatch{Name: req.Name, Email: req.Email})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}

func (s *HTTPServer) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if err := s.svc.Users.DeleteUser(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
