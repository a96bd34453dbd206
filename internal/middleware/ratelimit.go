package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hryh/wendrops/internal/endpoint"
)

// RateLimitProcessor limits requests per client IP using a token bucket per
// client. Clients idle longer than the eviction window are forgotten, so
// the limiter map stays bounded.
type RateLimitProcessor struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*client
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientEvictAfter is how long an idle client's bucket is retained.
const clientEvictAfter = 10 * time.Minute

// NewRateLimitProcessor allows roughly perMinute requests per client with
// the given burst.
func NewRateLimitProcessor(perMinute int, burst int) *RateLimitProcessor {
	return &RateLimitProcessor{
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
		clients: make(map[string]*client),
	}
}

// Process implements endpoint.Processor.
func (p *RateLimitProcessor) Process(w http.ResponseWriter, r *http.Request, next func(http.ResponseWriter, *http.Request) error) error {
	if !p.allow(clientIP(r)) {
		return endpoint.Error(http.StatusTooManyRequests, "rate limit exceeded", nil)
	}
	return next(w, r)
}

func (p *RateLimitProcessor) allow(ip string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	c, ok := p.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(p.limit, p.burst)}
		p.clients[ip] = c
	}
	c.lastSeen = now

	for key, other := range p.clients {
		if now.Sub(other.lastSeen) > clientEvictAfter {
			delete(p.clients, key)
		}
	}
	return c.limiter.Allow()
}

// clientIP extracts the caller's address, honoring X-Forwarded-For from a
// fronting proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for i := 0; i < len(fwd); i++ {
			if fwd[i] == ',' {
				return fwd[:i]
			}
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

var _ endpoint.Processor = (*RateLimitProcessor)(nil)
