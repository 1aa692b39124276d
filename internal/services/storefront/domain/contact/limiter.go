package contact

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultWindow is the minimum spacing between submissions from one client.
const DefaultWindow = 5 * time.Minute

// Limiter spaces submissions per client key. Each key gets a token bucket
// of size one refilled once per window.
type Limiter struct {
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientLimit
	lastPrune time.Time
}

type clientLimit struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Reservation holds one admitted submission until it is kept or cancelled.
type Reservation struct {
	r  *rate.Reservation
	at time.Time
}

// Cancel returns the token, letting the client submit again right away.
func (r *Reservation) Cancel() {
	if r == nil || r.r == nil {
		return
	}
	r.r.CancelAt(r.at)
}

// NewLimiter builds a limiter. A non-positive window uses DefaultWindow.
func NewLimiter(window time.Duration) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		window:  window,
		now:     time.Now,
		clients: make(map[string]*clientLimit),
	}
}

// Reserve admits one submission for key. When the client must wait, it
// returns the remaining delay and a nil reservation.
func (l *Limiter) Reserve(key string) (*Reservation, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)

	client, ok := l.clients[key]
	if !ok {
		client = &clientLimit{limiter: rate.NewLimiter(rate.Every(l.window), 1)}
		l.clients[key] = client
	}
	client.lastSeen = now

	r := client.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return nil, delay
	}
	return &Reservation{r: r, at: now}, 0
}

// pruneLocked drops clients idle for longer than a window; their buckets
// are full again and indistinguishable from new ones.
func (l *Limiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < l.window {
		return
	}
	l.lastPrune = now
	for key, client := range l.clients {
		if now.Sub(client.lastSeen) > l.window {
			delete(l.clients, key)
		}
	}
}

// WaitMinutes rounds a delay up to whole minutes, never below one.
func WaitMinutes(delay time.Duration) int {
	minutes := int((delay + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
