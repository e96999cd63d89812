package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// LiveQueryAction represents the type of change in a live query update
type LiveQueryAction string

const (
	ActionCreate LiveQueryAction = "CREATE"
	ActionUpdate LiveQueryAction = "UPDATE"
	ActionDelete LiveQueryAction = "DELETE"
	// ActionClose is delivered once when the server closes the notification
	// stream without the subscription having been cancelled.
	ActionClose LiveQueryAction = "CLOSE"
)

// LiveQueryHandler is called when live query data changes
type LiveQueryHandler func(ctx context.Context, action LiveQueryAction, data any)

// LiveQueryFilter defines optional filtering for live queries
type LiveQueryFilter struct {
	Where  string         // SurrealQL WHERE clause
	Params map[string]any // Query parameters
}

// Subscription represents an active live query subscription
type Subscription struct {
	ID    string
	Table string
}

// LiveQueryService provides real-time data subscriptions via SurrealDB Live Queries
type LiveQueryService interface {
	Subscribe(ctx context.Context, table string, filter *LiveQueryFilter, handler LiveQueryHandler) (*Subscription, error)
	Unsubscribe(subID string) error
}

// SurrealLiveQueryService implements LiveQueryService using SurrealDB
type SurrealLiveQueryService struct {
	db            DBConnection
	subscriptions sync.Map // map[string]*subscriptionState
}

type subscriptionState struct {
	id          string
	table       string
	handler     LiveQueryHandler
	cancel      context.CancelFunc
	liveQueryID string
}

// NewSurrealLiveQueryService creates a new live query service
func NewSurrealLiveQueryService(db DBConnection) *SurrealLiveQueryService {
	return &SurrealLiveQueryService{db: db}
}

// Subscribe creates a live query subscription for a table
func (s *SurrealLiveQueryService) Subscribe(ctx context.Context, table string, filter *LiveQueryFilter, handler LiveQueryHandler) (*Subscription, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}

	query := buildLiveQuery(table, filter)
	params := map[string]any{}
	if filter != nil && filter.Params != nil {
		params = filter.Params
	}

	subID := uuid.New().String()
	subCtx, cancel := context.WithCancel(context.Background())
	state := &subscriptionState{
		id:      subID,
		table:   table,
		handler: handler,
		cancel:  cancel,
	}
	s.subscriptions.Store(subID, state)

	err := s.db.WithConnection(ctx, func(dbConn *surrealdb.DB) error {
		results, err := surrealdb.Query[any](ctx, dbConn, query, params)
		if err != nil {
			return fmt.Errorf("failed to execute live query: %w", err)
		}
		if results == nil || len(*results) == 0 {
			return fmt.Errorf("live query returned no results")
		}
		result := (*results)[0]
		if result.Status != "OK" {
			return fmt.Errorf("live query failed with status: %s", result.Status)
		}

		liveID, err := liveQueryID(result.Result)
		if err != nil {
			return err
		}
		state.liveQueryID = liveID

		notifications, err := dbConn.LiveNotifications(liveID)
		if err != nil {
			return fmt.Errorf("failed to get notification channel: %w", err)
		}

		go s.listen(subCtx, state, notifications)
		go s.killOnCancel(subCtx, dbConn, state)
		return nil
	})
	if err != nil {
		cancel()
		s.subscriptions.Delete(subID)
		return nil, fmt.Errorf("failed to start live query: %w", err)
	}

	slog.Info("Live query established", "subID", subID, "table", table, "liveQueryID", state.liveQueryID)
	return &Subscription{ID: subID, Table: table}, nil
}

// Unsubscribe removes a live query subscription. Unknown ids are ignored.
func (s *SurrealLiveQueryService) Unsubscribe(subID string) error {
	if v, ok := s.subscriptions.LoadAndDelete(subID); ok {
		v.(*subscriptionState).cancel()
		slog.Info("Live query subscription removed", "subID", subID)
	}
	return nil
}

func (s *SurrealLiveQueryService) killOnCancel(ctx context.Context, dbConn *surrealdb.DB, state *subscriptionState) {
	<-ctx.Done()

	cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cleanupCancel()

	if err := dbConn.CloseLiveNotifications(state.liveQueryID); err != nil {
		slog.Warn("Failed to close live notifications", "error", err, "liveQueryID", state.liveQueryID)
	}
	if _, err := surrealdb.Query[any](cleanupCtx, dbConn, "KILL $liveQueryID", map[string]any{
		"liveQueryID": state.liveQueryID,
	}); err != nil {
		slog.Warn("Failed to kill live query", "error", err, "liveQueryID", state.liveQueryID)
		return
	}
	slog.Debug("Killed live query", "liveQueryID", state.liveQueryID)
}

// listen forwards notifications to the handler in arrival order. Handlers
// run on this goroutine; they must not block for long.
func (s *SurrealLiveQueryService) listen(ctx context.Context, state *subscriptionState, notifications <-chan connection.Notification) {
	defer s.subscriptions.Delete(state.id)

	for {
		select {
		case <-ctx.Done():
			return

		case notification, ok := <-notifications:
			if !ok {
				if ctx.Err() == nil {
					slog.Warn("Live query notification channel closed", "subID", state.id)
					s.dispatch(ctx, state, ActionClose, nil)
				}
				return
			}

			var action LiveQueryAction
			switch notification.Action {
			case connection.CreateAction:
				action = ActionCreate
			case connection.UpdateAction:
				action = ActionUpdate
			case connection.DeleteAction:
				action = ActionDelete
			default:
				slog.Warn("Unknown notification action", "subID", state.id, "action", notification.Action)
				continue
			}
			s.dispatch(ctx, state, action, notification.Result)
		}
	}
}

func (s *SurrealLiveQueryService) dispatch(ctx context.Context, state *subscriptionState, action LiveQueryAction, data any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic in live query handler", "subID", state.id, "panic", r)
		}
	}()
	state.handler(ctx, action, data)
}

func buildLiveQuery(table string, filter *LiveQueryFilter) string {
	query := fmt.Sprintf("LIVE SELECT * FROM %s", table)
	if filter != nil && strings.TrimSpace(filter.Where) != "" {
		query = fmt.Sprintf("%s WHERE %s", query, filter.Where)
	}
	return query
}

// liveQueryID extracts the live query UUID from a LIVE SELECT result, which
// depending on the server version arrives as a string, a UUID or a map.
func liveQueryID(result any) (string, error) {
	var id string
	switch v := result.(type) {
	case string:
		id = v
	case models.UUID:
		id = v.String()
	case *models.UUID:
		if v != nil {
			id = v.String()
		}
	case map[string]any:
		switch inner := v["id"].(type) {
		case string:
			id = inner
		case models.UUID:
			id = inner.String()
		default:
			return "", fmt.Errorf("live query result map does not contain 'id' field: %+v", v)
		}
	default:
		return "", fmt.Errorf("unexpected live query result type: %T", result)
	}
	if id == "" {
		return "", fmt.Errorf("live query returned empty UUID")
	}
	return id, nil
}
