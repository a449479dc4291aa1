package http

import (
	"log/slog"
	"net/http"
)

func (s *Server) handleSummaryReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	from, to, ok := requirePeriod(w, r)
	if !ok {
		return
	}

	key := reportCacheKey(userID, from, to)
	if summary, found := s.summaryCache.Get(key); found {
		slog.DebugContext(r.Context(), "Summary cache hit",
			"user_id", userID, "period_start", from.String(), "period_end", to.String())
		writeJSON(w, http.StatusOK, summary)
		return
	}

	summary, err := s.reports.FinancialSummary(r.Context(), userID, from, to)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.summaryCache.Set(key, summary)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCategorySpendingReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	from, to, ok := requirePeriod(w, r)
	if !ok {
		return
	}

	key := reportCacheKey(userID, from, to)
	if spending, found := s.spendingCache.Get(key); found {
		slog.DebugContext(r.Context(), "Category spending cache hit",
			"user_id", userID, "period_start", from.String(), "period_end", to.String())
		writeJSON(w, http.StatusOK, spending)
		return
	}

	spending, err := s.reports.CategorySpending(r.Context(), userID, from, to)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	s.spendingCache.Set(key, spending)
	writeJSON(w, http.StatusOK, spending)
}
