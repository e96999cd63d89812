package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nfrund/roomchat/internal/domain"
	"github.com/surrealdb/surrealdb.go"
)

var (
	_ domain.MessageRepository = (*MessageStore)(nil)
	_ domain.MessageFeed       = (*MessageStore)(nil)
)

// MessageStore persists chat messages and serves live, room-scoped feeds.
type MessageStore struct {
	conn DBConnection
	live LiveQueryService
}

// NewMessageStore creates a new MessageStore. live may be nil when only
// Append and List are needed.
func NewMessageStore(conn DBConnection, live LiveQueryService) *MessageStore {
	return &MessageStore{conn: conn, live: live}
}

// Append writes msg and returns the stored record with its server-assigned
// id and creation time.
func (s *MessageStore) Append(ctx context.Context, msg domain.NewMessage) (*domain.Message, error) {
	if strings.TrimSpace(msg.RoomID) == "" || strings.TrimSpace(msg.Text) == "" {
		return nil, NewDBError(ErrInvalidInput, "room and text are required")
	}

	ctx, cancel := getTimeoutFromContext(ctx, s.conn.GetDBExecuteTimeout(), ContextKeyExecuteTimeout)
	defer cancel()

	query := `CREATE message SET
		room = $room,
		text = $text,
		authorId = $authorId,
		authorEmail = $authorEmail,
		authorNickname = $authorNickname,
		createdAt = time::now()
		RETURN AFTER`

	var rec *messageRecord
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		rec, err = QueryOne[messageRecord](ctx, db, query, map[string]any{
			"room":           msg.RoomID,
			"text":           msg.Text,
			"authorId":       msg.AuthorID,
			"authorEmail":    msg.AuthorEmail,
			"authorNickname": msg.AuthorNickname,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	if rec == nil {
		return nil, NewDBError(ErrQueryFailed, "message was not stored")
	}
	out := rec.toDomain()
	return &out, nil
}

// List returns every message in the room ordered by creation time.
func (s *MessageStore) List(ctx context.Context, roomID string) ([]domain.Message, error) {
	ctx, cancel := getTimeoutFromContext(ctx, s.conn.GetDBQueryTimeout(), ContextKeyQueryTimeout)
	defer cancel()

	var recs []messageRecord
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		recs, err = Query[messageRecord](ctx, db, "SELECT * FROM message WHERE room = $room ORDER BY createdAt ASC", map[string]any{"room": roomID})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	msgs := make([]domain.Message, 0, len(recs))
	for i := range recs {
		msgs = append(msgs, recs[i].toDomain())
	}
	return msgs, nil
}

// Subscribe attaches a live feed to the room. The first snapshot is the
// current history; every change notification afterwards triggers a fresh,
// ordered snapshot. Snapshots that the consumer has not yet read are
// replaced by newer ones.
func (s *MessageStore) Subscribe(ctx context.Context, roomID string) (domain.Subscription, error) {
	if s.live == nil {
		return nil, NewDBError(ErrNotConnected, "live queries are not configured")
	}

	subCtx, cancel := context.WithCancel(context.Background())
	sub := &roomSubscription{
		store:  s,
		roomID: roomID,
		ctx:    subCtx,
		cancel: cancel,
		out:    make(chan domain.Snapshot, 1),
		kick:   make(chan struct{}, 1),
		failed: make(chan error, 1),
		done:   make(chan struct{}),
	}

	filter := &LiveQueryFilter{
		Where:  "room = $room",
		Params: map[string]any{"room": roomID},
	}
	live, err := s.live.Subscribe(ctx, messageTable, filter, sub.onChange)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to subscribe to room %s: %w", roomID, err)
	}
	sub.liveID = live.ID

	sub.trigger()
	go sub.run()
	return sub, nil
}

// roomSubscription turns live query notifications into full snapshots.
type roomSubscription struct {
	store  *MessageStore
	roomID string
	liveID string

	ctx    context.Context
	cancel context.CancelFunc

	out    chan domain.Snapshot
	kick   chan struct{}
	failed chan error
	done   chan struct{}

	mu         sync.Mutex
	closed     bool
	cancelOnce sync.Once
}

func (r *roomSubscription) Snapshots() <-chan domain.Snapshot {
	return r.out
}

func (r *roomSubscription) Cancel() {
	r.cancelOnce.Do(func() {
		r.cancel()
		if err := r.store.live.Unsubscribe(r.liveID); err != nil {
			slog.Warn("Failed to remove room subscription", "event", "room_unsubscribe_failed", "room", r.roomID, "error", err)
		}
		<-r.done

		r.mu.Lock()
		r.closed = true
		close(r.out)
		r.mu.Unlock()
	})
}

func (r *roomSubscription) onChange(_ context.Context, action LiveQueryAction, _ any) {
	if action == ActionClose {
		select {
		case r.failed <- ErrLiveQueryClosed:
		default:
		}
		return
	}
	r.trigger()
}

func (r *roomSubscription) trigger() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

func (r *roomSubscription) run() {
	defer close(r.done)
	for {
		select {
		case <-r.ctx.Done():
			return
		case err := <-r.failed:
			r.deliver(domain.Snapshot{Err: err})
		case <-r.kick:
			msgs, err := r.store.List(r.ctx, r.roomID)
			if r.ctx.Err() != nil {
				return
			}
			if err != nil {
				slog.Warn("Failed to load room snapshot", "event", "room_snapshot_failed", "room", r.roomID, "error", err)
				r.deliver(domain.Snapshot{Err: err})
				continue
			}
			r.deliver(domain.Snapshot{Messages: msgs})
		}
	}
}

// deliver replaces any unread snapshot with snap.
func (r *roomSubscription) deliver(snap domain.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case <-r.out:
	default:
	}
	r.out <- snap
}
