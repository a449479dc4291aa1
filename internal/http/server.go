// Package http exposes the reporting engine and the backing store as a JSON
// API.
package http

import (
	"container/list"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/report"
)

// Store is the persistence surface the handlers need. *storage.SQLiteRepository
// satisfies it.
type Store interface {
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	GetCategory(ctx context.Context, userID, id string) (core.Category, error)
	ListCategories(ctx context.Context, userID string) ([]core.Category, error)
	DeleteCategory(ctx context.Context, userID, id string) error

	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID string, from, to *core.Date) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id string, patch core.TransactionPatch) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error

	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	GetBudget(ctx context.Context, userID, id string) (core.Budget, error)
	ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
	UpdateBudget(ctx context.Context, userID, id string, patch core.BudgetPatch) (core.Budget, error)
	DeleteBudget(ctx context.Context, userID, id string) error

	CreateInvestment(ctx context.Context, inv core.Investment) (core.Investment, error)
	GetInvestment(ctx context.Context, userID, id string) (core.Investment, error)
	Investments(ctx context.Context, userID string) ([]core.Investment, error)
	UpdateInvestment(ctx context.Context, userID, id string, patch core.InvestmentPatch) (core.Investment, error)
	DeleteInvestment(ctx context.Context, userID, id string) error

	CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error)
	GetDebt(ctx context.Context, userID, id string) (core.Debt, error)
	Debts(ctx context.Context, userID string) ([]core.Debt, error)
	UpdateDebt(ctx context.Context, userID, id string, patch core.DebtPatch) (core.Debt, error)
	DeleteDebt(ctx context.Context, userID, id string) error
}

// Reporter is the slice of the reporting engine the report handlers need.
type Reporter interface {
	FinancialSummary(ctx context.Context, userID string, from, to core.Date) (*report.FinancialSummary, error)
	CategorySpending(ctx context.Context, userID string, from, to core.Date) ([]report.CategorySpending, error)
}

// LRU cache with TTL and size-based eviction
type lruCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
}

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

func newLRUCache[T any](maxSize int, ttl time.Duration) *lruCache[T] {
	return &lruCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

func (c *lruCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, exists := c.items[key]
	if !exists {
		return zero, false
	}

	item := elem.Value.(*cacheItem[T])

	if time.Now().After(item.expiresAt) {
		c.removeElement(elem)
		return zero, false
	}

	c.lru.MoveToFront(elem)
	return item.data, true
}

func (c *lruCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := &cacheItem[T]{
		key:       key,
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(item)
	c.items[key] = elem

	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

// DeleteByPrefix removes every entry whose key starts with prefix. Report
// cache keys start with the user ID, so a user's writes evict only that
// user's cached reports.
func (c *lruCache[T]) DeleteByPrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []*list.Element
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		if strings.HasPrefix(elem.Value.(*cacheItem[T]).key, prefix) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		c.removeElement(elem)
	}
}

func (c *lruCache[T]) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

// CleanExpired removes all expired entries
func (c *lruCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var toRemove []*list.Element
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*cacheItem[T]).expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		c.removeElement(elem)
	}
	return len(toRemove)
}

type Server struct {
	http.Server
	store   Store
	reports Reporter

	rateLimiter *rateLimiter

	// Report responses are cached per user and period; any write for a user
	// evicts that user's entries.
	summaryCache  *lruCache[*report.FinancialSummary]
	spendingCache *lruCache[[]report.CategorySpending]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

// startCleanup runs periodic cleanup to remove stale client entries
func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, store Store, reports Reporter) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:            store,
		reports:          reports,
		rateLimiter:      newRateLimiter(),
		summaryCache:     newLRUCache[*report.FinancialSummary](200, 5*time.Minute),
		spendingCache:    newLRUCache[[]report.CategorySpending](200, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/categories", s.withAPIDefaults(s.handleCreateCategory))
	mux.HandleFunc("GET /api/categories", s.withAPIDefaults(s.handleListCategories))
	mux.HandleFunc("GET /api/categories/{id}", s.withAPIDefaults(s.handleGetCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withAPIDefaults(s.handleDeleteCategory))

	mux.HandleFunc("POST /api/transactions", s.withAPIDefaults(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions", s.withAPIDefaults(s.handleListTransactions))
	mux.HandleFunc("GET /api/transactions/{id}", s.withAPIDefaults(s.handleGetTransaction))
	mux.HandleFunc("PATCH /api/transactions/{id}", s.withAPIDefaults(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withAPIDefaults(s.handleDeleteTransaction))

	mux.HandleFunc("POST /api/budgets", s.withAPIDefaults(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budgets", s.withAPIDefaults(s.handleListBudgets))
	mux.HandleFunc("GET /api/budgets/{id}", s.withAPIDefaults(s.handleGetBudget))
	mux.HandleFunc("PATCH /api/budgets/{id}", s.withAPIDefaults(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.withAPIDefaults(s.handleDeleteBudget))

	mux.HandleFunc("POST /api/investments", s.withAPIDefaults(s.handleCreateInvestment))
	mux.HandleFunc("GET /api/investments", s.withAPIDefaults(s.handleListInvestments))
	mux.HandleFunc("GET /api/investments/{id}", s.withAPIDefaults(s.handleGetInvestment))
	mux.HandleFunc("PATCH /api/investments/{id}", s.withAPIDefaults(s.handleUpdateInvestment))
	mux.HandleFunc("DELETE /api/investments/{id}", s.withAPIDefaults(s.handleDeleteInvestment))

	mux.HandleFunc("POST /api/debts", s.withAPIDefaults(s.handleCreateDebt))
	mux.HandleFunc("GET /api/debts", s.withAPIDefaults(s.handleListDebts))
	mux.HandleFunc("GET /api/debts/{id}", s.withAPIDefaults(s.handleGetDebt))
	mux.HandleFunc("PATCH /api/debts/{id}", s.withAPIDefaults(s.handleUpdateDebt))
	mux.HandleFunc("DELETE /api/debts/{id}", s.withAPIDefaults(s.handleDeleteDebt))

	mux.HandleFunc("GET /api/reports/summary", s.withAPIDefaults(s.handleSummaryReport))
	mux.HandleFunc("GET /api/reports/category-spending", s.withAPIDefaults(s.handleCategorySpendingReport))

	return s
}

// startCacheCleanup runs periodic cleanup for both report caches
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			summariesCleaned := s.summaryCache.CleanExpired()
			spendingCleaned := s.spendingCache.CleanExpired()
			if summariesCleaned > 0 || spendingCleaned > 0 {
				slog.Debug("Cache cleanup completed",
					"summary_entries_removed", summariesCleaned,
					"spending_entries_removed", spendingCleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func reportCacheKey(userID string, from, to core.Date) string {
	return userID + "|" + from.String() + "|" + to.String()
}

// invalidateReports drops a user's cached reports after any write.
func (s *Server) invalidateReports(userID string) {
	s.summaryCache.DeleteByPrefix(userID + "|")
	s.spendingCache.DeleteByPrefix(userID + "|")
}

// withAPIDefaults adds security headers, rate limiting, and request logging.
func (s *Server) withAPIDefaults(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate limit mutations only; report reads are cached anyway.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
