package server

import (
	"errors"
	"net/http"
	"strings"

	"engagelens/internal/store"
)

// Account and transaction endpoints are plain single-table CRUD over the
// relational store.

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		s.writeStatusError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	user, err := s.db.Register(r.Context(), req.Username, req.Password)
	if errors.Is(err, store.ErrUsernameTaken) {
		s.writeStatusError(w, http.StatusConflict, "username_taken", err.Error())
		return
	}
	if err != nil {
		s.writeStatusError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	session, err := s.db.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, store.ErrInvalidLogin) {
		s.writeStatusError(w, http.StatusUnauthorized, "invalid_login", err.Error())
		return
	}
	if err != nil {
		s.writeStatusError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

// authenticate resolves the bearer token to a user, or writes a 401 and
// returns nil.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) *store.User {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" || token == r.Header.Get("Authorization") {
		s.writeStatusError(w, http.StatusUnauthorized, "unauthorized", "bearer token required")
		return nil
	}

	user, err := s.db.UserForToken(r.Context(), token)
	if err != nil {
		s.writeStatusError(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return nil
	}
	return user
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	user := s.authenticate(w, r)
	if user == nil {
		return
	}

	var req struct {
		Item        string `json:"item"`
		AmountCents int64  `json:"amount_cents"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Item == "" {
		s.writeStatusError(w, http.StatusBadRequest, "invalid_request", "item is required")
		return
	}

	transaction, err := s.db.RecordTransaction(r.Context(), user.ID, req.Item, req.AmountCents)
	if err != nil {
		s.writeStatusError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, transaction)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	user := s.authenticate(w, r)
	if user == nil {
		return
	}

	transactions, err := s.db.TransactionsForUser(r.Context(), user.ID)
	if err != nil {
		s.writeStatusError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, transactions)
}
