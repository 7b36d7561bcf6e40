package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitManager owns per-IP limiters and their cleanup goroutine.
// General traffic shares one pool; uploads and auth attempts get their
// own, stricter pools.
type RateLimitManager struct {
	visitorsMu sync.Mutex
	visitors   map[string]*visitor

	uploadMu       sync.Mutex
	uploadVisitors map[string]*visitor

	authMu       sync.Mutex
	authVisitors map[string]*visitor

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRateLimitManager(ctx context.Context) *RateLimitManager {
	managerCtx, cancel := context.WithCancel(ctx)

	m := &RateLimitManager{
		visitors:       make(map[string]*visitor),
		uploadVisitors: make(map[string]*visitor),
		authVisitors:   make(map[string]*visitor),
		ctx:            managerCtx,
		cancel:         cancel,
	}

	m.wg.Add(1)
	go m.cleanupLoop()

	return m
}

// GetVisitor returns the general limiter for an IP, creating it on
// first sight. A non-positive request budget disables limiting.
func (m *RateLimitManager) GetVisitor(ip string, requestsPerWindow, windowSeconds, burst int) *rate.Limiter {
	m.visitorsMu.Lock()
	defer m.visitorsMu.Unlock()
	return lookupVisitor(m.visitors, ip, requestsPerWindow, windowSeconds, burst)
}

// GetUploadVisitor returns the upload limiter for an IP.
func (m *RateLimitManager) GetUploadVisitor(ip string, requestsPerWindow, windowSeconds int) *rate.Limiter {
	m.uploadMu.Lock()
	defer m.uploadMu.Unlock()
	return lookupVisitor(m.uploadVisitors, ip, requestsPerWindow, windowSeconds, 0)
}

// GetAuthVisitor returns the login/registration limiter for an IP.
func (m *RateLimitManager) GetAuthVisitor(ip string, requestsPerWindow, windowSeconds int) *rate.Limiter {
	m.authMu.Lock()
	defer m.authMu.Unlock()
	return lookupVisitor(m.authVisitors, ip, requestsPerWindow, windowSeconds, 0)
}

// lookupVisitor must run under the lock guarding the map.
func lookupVisitor(visitors map[string]*visitor, ip string, requestsPerWindow, windowSeconds, burst int) *rate.Limiter {
	if requestsPerWindow <= 0 {
		return nil
	}

	if v, exists := visitors[ip]; exists {
		v.lastSeen = time.Now()
		return v.limiter
	}

	if windowSeconds <= 0 {
		windowSeconds = 60
	}

	limitPerSecond := float64(requestsPerWindow) / float64(windowSeconds)
	limit := rate.Limit(limitPerSecond)
	if limitPerSecond <= 0 {
		limit = rate.Inf
	}

	if burst < requestsPerWindow {
		burst = requestsPerWindow
	}

	limiter := rate.NewLimiter(limit, burst)
	visitors[ip] = &visitor{limiter, time.Now()}
	return limiter
}

func (m *RateLimitManager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

func (m *RateLimitManager) cleanup() {
	m.visitorsMu.Lock()
	dropStale(m.visitors, 3*time.Minute)
	m.visitorsMu.Unlock()

	// Upload and auth windows are long; keep their state around longer.
	m.uploadMu.Lock()
	dropStale(m.uploadVisitors, 10*time.Minute)
	m.uploadMu.Unlock()

	m.authMu.Lock()
	dropStale(m.authVisitors, 10*time.Minute)
	m.authMu.Unlock()
}

func dropStale(visitors map[string]*visitor, maxIdle time.Duration) {
	for ip, v := range visitors {
		if time.Since(v.lastSeen) > maxIdle {
			delete(visitors, ip)
		}
	}
}

// Shutdown stops the cleanup goroutine and waits for it to finish.
func (m *RateLimitManager) Shutdown() error {
	m.cancel()
	m.wg.Wait()
	return nil
}
