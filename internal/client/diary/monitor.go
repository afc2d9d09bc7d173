package diary

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/nchiang/moodiary/internal/client/models"
	"github.com/nchiang/moodiary/internal/client/pending"
	"github.com/nchiang/moodiary/internal/client/remote"
	"github.com/nchiang/moodiary/internal/common"
	"github.com/nchiang/moodiary/internal/cryptox"
	"github.com/nchiang/moodiary/internal/logging"
)

// State is the monitor's connectivity state.
type State int

const (
	StateOffline State = iota
	StateOnlineIdle
	StateOnlineSyncing
)

func (s State) String() string {
	switch s {
	case StateOffline:
		return "offline"
	case StateOnlineIdle:
		return "online"
	case StateOnlineSyncing:
		return "syncing"
	default:
		return "unknown"
	}
}

// StatusEvent is pushed to the notifier on every state change and sync
// outcome, for the CLI status banner.
type StatusEvent struct {
	State   State
	Message string
	Synced  int
	Failed  int
}

// Notifier receives status events. May be nil.
type Notifier func(StatusEvent)

// Monitor probes backend reachability, tracks the Offline / Online-Idle /
// Online-Syncing state machine and drains the pending store on every
// offline-to-online edge.
type Monitor struct {
	store      remote.Store
	pending    pending.Repository
	reconciler *Reconciler
	identity   func() string
	notify     Notifier
	logger     logging.Logger

	mu    sync.Mutex
	state State

	// Test seams.
	retryDelay   time.Duration
	pingTimeout  time.Duration
	identityBase time.Duration
}

// NewMonitor builds a Monitor. identity returns the authenticated user id,
// or empty while sign-in has not resolved yet. notify may be nil.
func NewMonitor(store remote.Store, pend pending.Repository, rec *Reconciler,
	identity func() string, notify Notifier, logger logging.Logger) *Monitor {
	return &Monitor{
		store:        store,
		pending:      pend,
		reconciler:   rec,
		identity:     identity,
		notify:       notify,
		logger:       logger,
		state:        StateOffline,
		retryDelay:   5 * time.Second,
		pingTimeout:  3 * time.Second,
		identityBase: 500 * time.Millisecond,
	}
}

// State returns the current connectivity state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Online reports whether the monitor currently considers the backend
// reachable.
func (m *Monitor) Online() bool {
	return m.State() != StateOffline
}

func (m *Monitor) setState(s State, ev StatusEvent) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	ev.State = s
	if m.notify != nil {
		m.notify(ev)
	}
}

// Start runs the reachability watcher loop until ctx is cancelled. Each tick
// pings the server; an offline-to-online edge triggers a drain in a separate
// goroutine so the watcher keeps observing. An offline event during a sync
// flips the state immediately without cancelling the in-flight pass.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, m.pingTimeout)
			err := m.store.Ping(pingCtx)
			cancel()

			if err != nil {
				if m.State() != StateOffline {
					m.setState(StateOffline, StatusEvent{Message: "offline mode"})
				}
			} else {
				if m.State() == StateOffline {
					go m.HandleOnline(ctx)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// HandleOnline runs the full online-transition pass: wait for identity,
// drain the pending store, refresh, and retry the whole drain exactly once
// after retryDelay when any record failed.
func (m *Monitor) HandleOnline(ctx context.Context) {
	m.setState(StateOnlineSyncing, StatusEvent{Message: "syncing..."})

	userID, err := m.awaitIdentity(ctx)
	if err != nil {
		m.logger.Warn(ctx, "identity not available, sync deferred", "error", err)
		m.setState(StateOnlineIdle, StatusEvent{Message: "sign in to sync"})
		return
	}

	synced, failed := m.drainOnce(ctx, userID)
	m.refreshView(ctx, userID)

	if failed == 0 {
		m.setState(StateOnlineIdle, StatusEvent{Message: "synced", Synced: synced})
		return
	}

	m.setState(StateOnlineIdle, StatusEvent{
		Message: fmt.Sprintf("partially synced (%d/%d, will retry)", synced, synced+failed),
		Synced:  synced,
		Failed:  failed,
	})

	// Exactly one whole-pass retry, only if still online then.
	select {
	case <-ctx.Done():
		return
	case <-time.After(m.retryDelay):
	}
	if m.State() == StateOffline {
		return
	}

	m.setState(StateOnlineSyncing, StatusEvent{Message: "syncing..."})
	synced, failed = m.drainOnce(ctx, userID)
	m.refreshView(ctx, userID)

	if failed == 0 {
		m.setState(StateOnlineIdle, StatusEvent{Message: "synced", Synced: synced})
	} else {
		m.setState(StateOnlineIdle, StatusEvent{
			Message: "sync failed, will retry automatically",
			Synced:  synced,
			Failed:  failed,
		})
	}
}

// awaitIdentity waits for the user id with bounded exponential backoff, so a
// never-authenticating session stops retrying instead of spinning forever.
func (m *Monitor) awaitIdentity(ctx context.Context) (string, error) {
	var userID string
	backoff := retry.WithMaxRetries(5, retry.NewExponential(m.identityBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if id := m.identity(); id != "" {
			userID = id
			return nil
		}
		return retry.RetryableError(common.ErrIdentityNotReady)
	})
	return userID, err
}

// drainOnce syncs every pending record once. For plain saves a canonical
// document that already exists wins over the pending copy (idempotency guard
// against double-send); edit records instead merge into the existing
// document, since the canonical copy is exactly what they modify. Per-record
// failures leave the record queued.
func (m *Monitor) drainOnce(ctx context.Context, userID string) (synced, failed int) {
	writes, err := m.pending.GetAll(ctx)
	if err != nil {
		m.logger.Error(ctx, "pending store read failed", "error", err)
		return 0, 1
	}

	key := cryptox.DeriveAccountKey(userID)
	canonicalPath := remote.CanonicalPath(userID)

	for _, w := range writes {
		_, err := m.store.Get(ctx, canonicalPath, w.ID)
		switch {
		case err == nil && w.IsEdit:
			if err := m.updateEntry(ctx, canonicalPath, w, key); err != nil {
				m.logger.Warn(ctx, "pending edit sync failed", "id", w.ID, "error", err)
				failed++
				continue
			}
		case err == nil:
			// A save already written remotely, drop the local copy.
		case errors.Is(err, common.ErrNotFound):
			doc, encErr := encodeEntry(&w.Entry, key)
			if encErr != nil {
				m.logger.Warn(ctx, "pending record encode failed", "id", w.ID, "error", encErr)
				failed++
				continue
			}
			if err := m.store.Set(ctx, canonicalPath, w.ID, doc); err != nil {
				m.logger.Warn(ctx, "pending record sync failed", "id", w.ID, "error", err)
				failed++
				continue
			}
		default:
			m.logger.Warn(ctx, "pending record existence check failed", "id", w.ID, "error", err)
			failed++
			continue
		}

		if err := m.pending.Remove(ctx, w.ID); err != nil {
			m.logger.Warn(ctx, "pending record remove failed", "id", w.ID, "error", err)
			failed++
			continue
		}
		synced++
	}
	return synced, failed
}

// updateEntry merges a pending edit into its existing canonical document,
// mirroring the fields the online edit path writes.
func (m *Monitor) updateEntry(ctx context.Context, canonicalPath string, w *models.PendingWrite, key []byte) error {
	enc, err := cryptox.EncryptContent(w.Content, key)
	if err != nil {
		return fmt.Errorf("encrypt content: %w", err)
	}
	return m.store.Update(ctx, canonicalPath, w.ID, map[string]any{
		"contentEnc": enc,
		"sentiment":  w.Sentiment.Document(),
		"isDeleted":  w.IsDeleted,
		"updatedAt":  w.UpdatedAt,
	})
}

func (m *Monitor) refreshView(ctx context.Context, userID string) {
	if _, err := m.reconciler.Refresh(ctx, userID, false); err != nil {
		m.logger.Warn(ctx, "post-sync refresh failed", "error", err)
	}
}
