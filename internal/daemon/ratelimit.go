package daemon

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitors keeps one token bucket per client address.
type visitors struct {
	mu    sync.Mutex
	rps   int
	burst int
	byIP  map[string]*visitor
}

func newVisitors(rps, burst int) *visitors {
	return &visitors{rps: rps, burst: burst, byIP: make(map[string]*visitor)}
}

func (v *visitors) get(ip string) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()

	vis, ok := v.byIP[ip]
	if !ok {
		vis = &visitor{limiter: rate.NewLimiter(rate.Limit(v.rps), v.burst)}
		v.byIP[ip] = vis
	}
	vis.lastSeen = time.Now()
	return vis.limiter
}

// sweep forgets clients not seen for idle.
func (v *visitors) sweep(idle time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for ip, vis := range v.byIP {
		if time.Since(vis.lastSeen) > idle {
			delete(v.byIP, ip)
		}
	}
}

func (s *Service) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !s.limiter.get(ip).Allow() {
			s.metrics.rateLimited.Inc()
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
