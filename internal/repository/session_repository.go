package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/acrux-trazabilidad/internal/model"
)

// ErrSessionNotFound is returned when a server session expired through
// inactivity or was deleted by logout.
var ErrSessionNotFound = errors.New("session not found")

// ServerSession is the Redis side of a login.  Its key lives for the idle
// timeout and every authenticated request pushes the expiry forward.
type ServerSession struct {
	ID           string
	UserID       uint64
	Rol          model.Role
	CreatedAt    time.Time
	LastActivity time.Time
}

// SessionRepo stores server sessions as hashes under session:<id> with a
// per-user index set user_sessions:<user_id>.
type SessionRepo struct {
	rdb    *redis.Client
	idle   time.Duration
	prefix string
	now    func() time.Time
}

// NewSessionRepo returns a repository whose sessions expire after idle
// without activity.
func NewSessionRepo(rdb *redis.Client, idle time.Duration) *SessionRepo {
	return &SessionRepo{rdb: rdb, idle: idle, prefix: "acrux", now: time.Now}
}

func (r *SessionRepo) key(id string) string { return r.prefix + ":session:" + id }

func (r *SessionRepo) userKey(userID uint64) string {
	return r.prefix + ":user_sessions:" + strconv.FormatUint(userID, 10)
}

// IdleTimeout reports the sliding TTL.
func (r *SessionRepo) IdleTimeout() time.Duration { return r.idle }

// Create opens a new session for a user.
func (r *SessionRepo) Create(ctx context.Context, userID uint64, rol model.Role) (ServerSession, error) {
	now := r.now().UTC()
	s := ServerSession{ID: uuid.NewString(), UserID: userID, Rol: rol, CreatedAt: now, LastActivity: now}
	key := r.key(s.ID)
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, map[string]any{
			"user_id":       strconv.FormatUint(userID, 10),
			"rol":           string(rol),
			"created_at":    now.Format(time.RFC3339),
			"last_activity": now.Format(time.RFC3339),
		})
		p.Expire(ctx, key, r.idle)
		p.SAdd(ctx, r.userKey(userID), s.ID)
		return nil
	})
	if err != nil {
		return ServerSession{}, err
	}
	return s, nil
}

// Touch records activity on a session and slides its expiry.  It
// returns ErrSessionNotFound when the session no longer exists.
func (r *SessionRepo) Touch(ctx context.Context, id string) (ServerSession, error) {
	key := r.key(id)
	alive, err := r.rdb.Expire(ctx, key, r.idle).Result()
	if err != nil {
		return ServerSession{}, err
	}
	if !alive {
		return ServerSession{}, ErrSessionNotFound
	}
	now := r.now().UTC()
	if err := r.rdb.HSet(ctx, key, "last_activity", now.Format(time.RFC3339)).Err(); err != nil {
		return ServerSession{}, err
	}
	return r.get(ctx, id)
}

// Get loads a session without touching it.
func (r *SessionRepo) Get(ctx context.Context, id string) (ServerSession, error) {
	return r.get(ctx, id)
}

func (r *SessionRepo) get(ctx context.Context, id string) (ServerSession, error) {
	data, err := r.rdb.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return ServerSession{}, err
	}
	if len(data) == 0 {
		return ServerSession{}, ErrSessionNotFound
	}
	uid, _ := strconv.ParseUint(data["user_id"], 10, 64)
	created, _ := time.Parse(time.RFC3339, data["created_at"])
	last, _ := time.Parse(time.RFC3339, data["last_activity"])
	return ServerSession{
		ID:           id,
		UserID:       uid,
		Rol:          model.Role(data["rol"]),
		CreatedAt:    created,
		LastActivity: last,
	}, nil
}

// Delete removes one session.  Deleting a missing session is not an error.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	s, err := r.get(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.key(id))
		p.SRem(ctx, r.userKey(s.UserID), id)
		return nil
	})
	return err
}

// DeleteAllForUser ends every session of a user, used when an admin
// deactivates an account or changes its role.
func (r *SessionRepo) DeleteAllForUser(ctx context.Context, userID uint64) error {
	idx := r.userKey(userID)
	ids, err := r.rdb.SMembers(ctx, idx).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, r.key(id))
	}
	keys = append(keys, idx)
	return r.rdb.Del(ctx, keys...).Err()
}
