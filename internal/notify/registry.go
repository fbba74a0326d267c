package notify

import (
	"sync"

	"go.uber.org/zap"

	"github.com/vurse/backend/pkg/logging"
)

// Conn is one live delivery channel for a user. A user may hold several at
// once (multiple tabs or devices).
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Registry maps user ids to their live connections. Delivery is best
// effort: a failed write is logged and the connection dropped, never raised
// to the caller.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string][]Conn
	logger *zap.Logger
}

// NewRegistry creates an empty connection registry
func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[string][]Conn),
		logger: logging.GetLogger().Named("notify"),
	}
}

// Connect registers a connection for a user
func (r *Registry) Connect(userID string, conn Conn) {
	r.mu.Lock()
	r.conns[userID] = append(r.conns[userID], conn)
	count := len(r.conns[userID])
	r.mu.Unlock()

	r.logger.Debug("connection registered",
		zap.String("user_id", userID),
		zap.Int("connections", count))
}

// Disconnect removes a connection for a user. The user's entry is dropped
// entirely when its last connection goes away. Unknown connections are
// ignored.
func (r *Registry) Disconnect(userID string, conn Conn) {
	r.mu.Lock()
	conns := r.conns[userID]
	for i, c := range conns {
		if c == conn {
			conns = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(conns) == 0 {
		delete(r.conns, userID)
	} else {
		r.conns[userID] = conns
	}
	r.mu.Unlock()
}

// Connections returns how many live connections the user holds
func (r *Registry) Connections(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID])
}

// Push writes the event to every live connection the recipient holds and
// returns how many writes succeeded. Iteration runs over a snapshot so a
// concurrent connect or disconnect never blocks delivery.
//
// A failed write is logged, and additionally the handle is closed and
// removed here. A strictly log-only push would leave the dead handle in
// place until the read pump notices; eager removal means lazy reaping
// happens on the first failed send rather than one push later.
func (r *Registry) Push(userID string, event *Event) int {
	r.mu.RLock()
	snapshot := make([]Conn, len(r.conns[userID]))
	copy(snapshot, r.conns[userID])
	r.mu.RUnlock()

	if len(snapshot) == 0 {
		return 0
	}

	delivered := 0
	for _, conn := range snapshot {
		if err := conn.WriteJSON(event); err != nil {
			r.logger.Warn("notification push failed",
				zap.String("user_id", userID),
				zap.String("type", event.Type),
				zap.Error(err))
			conn.Close()
			r.Disconnect(userID, conn)
			continue
		}
		delivered++
	}
	return delivered
}
