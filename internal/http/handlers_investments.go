package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var inv core.Investment
	if err := decodeJSON(r, &inv); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	inv.UserID = userID

	created, err := s.store.CreateInvestment(r.Context(), inv)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.invalidateReports(userID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	investments, err := s.store.Investments(r.Context(), userID)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if investments == nil {
		investments = []core.Investment{}
	}
	writeJSON(w, http.StatusOK, investments)
}

func (s *Server) handleGetInvestment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	inv, err := s.store.GetInvestment(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleUpdateInvestment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var patch core.InvestmentPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.IsEmpty() {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	updated, err := s.store.UpdateInvestment(r.Context(), userID, r.PathValue("id"), patch)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.invalidateReports(userID)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteInvestment(r.Context(), userID, r.PathValue("id")); err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.invalidateReports(userID)
	w.WriteHeader(http.StatusNoContent)
}
