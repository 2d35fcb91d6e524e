package cart

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/foodgrid/backend-pos/internal/events"
	"github.com/foodgrid/backend-pos/internal/lock"
	"github.com/foodgrid/backend-pos/internal/obs"
	"github.com/foodgrid/backend-pos/internal/tenant"
)

const (
	lockKeyPrefix  = "cart:mutate"
	defaultLiveTTL = 30 * time.Minute
)

// liveEntry pairs a hydrated store with its last use, so idle carts
// can be dropped from memory.
type liveEntry struct {
	store    *Store
	lastUsed time.Time
}

// Service fronts the per-session cart stores. Live carts are kept in
// memory keyed by tenant and session and evicted once idle; every
// mutation is persisted to the snapshot store best-effort, so a
// process restart only loses the handful of milliseconds between
// mutation and save.
type Service struct {
	Snapshots SnapshotStore
	Logger    zerolog.Logger
	Events    *events.Bus

	// Locks serialises a session's mutations across API instances.
	// Each locked mutation reloads the snapshot before applying, so
	// writes from other instances are never overwritten. When unset,
	// mutations run against the local store only.
	Locks   *lock.Locker
	LockTTL time.Duration

	// LiveTTL bounds how long an untouched cart stays in memory.
	LiveTTL time.Duration

	now func() time.Time

	mu   sync.Mutex
	live map[string]*liveEntry
}

// NewService builds a cart service over the given snapshot store.
func NewService(snapshots SnapshotStore, logger zerolog.Logger, bus *events.Bus) *Service {
	return &Service{
		Snapshots: snapshots,
		Logger:    logger,
		Events:    bus,
		live:      make(map[string]*liveEntry),
	}
}

// storageKey namespaces the session's cart under the request tenant.
func storageKey(ctx context.Context, sessionID string) string {
	return tenant.KeyFromContext(ctx, SnapshotKeyPrefix+":"+sessionID)
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Service) liveTTL() time.Duration {
	if s.LiveTTL > 0 {
		return s.LiveTTL
	}
	return defaultLiveTTL
}

// evictStale drops untouched carts. Callers must hold mu.
func (s *Service) evictStale(now time.Time) {
	ttl := s.liveTTL()
	for k, e := range s.live {
		if now.Sub(e.lastUsed) > ttl {
			delete(s.live, k)
		}
	}
}

// hydrate loads the session's snapshot into a fresh store. Load
// failures degrade to an empty cart rather than failing the request.
func (s *Service) hydrate(ctx context.Context, key, sessionID string) *Store {
	st := NewStore()
	if s.Snapshots != nil {
		snap, ok, err := s.Snapshots.Load(ctx, key)
		if err != nil {
			s.Logger.Warn().Err(err).Str("session_id", sessionID).Msg("cart snapshot load failed, starting empty")
		} else if ok {
			st = FromSnapshot(snap)
		}
	}
	return st
}

// storeFor returns the live store for the session. Entries past the
// idle TTL are discarded and rehydrated from the snapshot store, so a
// cart whose snapshot expired does not live on in memory.
func (s *Service) storeFor(ctx context.Context, sessionID string) *Store {
	key := storageKey(ctx, sessionID)
	now := s.clock()

	s.mu.Lock()
	if e, ok := s.live[key]; ok && now.Sub(e.lastUsed) <= s.liveTTL() {
		e.lastUsed = now
		s.mu.Unlock()
		return e.store
	}
	delete(s.live, key)
	s.mu.Unlock()

	st := s.hydrate(ctx, key, sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.live[key]; ok {
		e.lastUsed = now
		return e.store
	}
	s.evictStale(now)
	s.live[key] = &liveEntry{store: st, lastUsed: now}
	return st
}

// refresh reloads the session's cart from the snapshot store and
// replaces the live copy, picking up writes made by other instances.
// When the reload fails the cached store is used instead.
func (s *Service) refresh(ctx context.Context, sessionID string) *Store {
	if s.Snapshots == nil {
		return s.storeFor(ctx, sessionID)
	}
	key := storageKey(ctx, sessionID)
	snap, ok, err := s.Snapshots.Load(ctx, key)
	if err != nil {
		s.Logger.Warn().Err(err).Str("session_id", sessionID).Msg("cart snapshot reload failed, using cached cart")
		return s.storeFor(ctx, sessionID)
	}
	st := NewStore()
	if ok {
		st = FromSnapshot(snap)
	}
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictStale(now)
	s.live[key] = &liveEntry{store: st, lastUsed: now}
	return st
}

// withStore runs a mutation against the session's cart. With a locker
// configured the mutation is serialised across instances and applied
// to a freshly reloaded store; without one, or when the lock cannot
// be taken, it falls back to the local store.
func (s *Service) withStore(ctx context.Context, sessionID string, fn func(st *Store)) {
	if s.Locks == nil {
		fn(s.storeFor(ctx, sessionID))
		return
	}
	key := tenant.KeyFromContext(ctx, lockKeyPrefix+":"+sessionID)
	err := s.Locks.WithLock(ctx, key, s.LockTTL, func(ctx context.Context) error {
		fn(s.refresh(ctx, sessionID))
		return nil
	})
	if err != nil {
		s.Logger.Warn().Err(err).Str("session_id", sessionID).Msg("cart lock unavailable, mutating unserialised")
		fn(s.storeFor(ctx, sessionID))
	}
}

func (s *Service) dropLive(ctx context.Context, sessionID string) {
	key := storageKey(ctx, sessionID)
	s.mu.Lock()
	delete(s.live, key)
	s.mu.Unlock()
}

// persist writes the current cart state back to the snapshot store.
// Failures are logged and counted but never surfaced to the guest.
func (s *Service) persist(ctx context.Context, sessionID string, st *Store) {
	if s.Snapshots == nil {
		return
	}
	if err := s.Snapshots.Save(ctx, storageKey(ctx, sessionID), st.Snapshot()); err != nil {
		s.Logger.Error().Err(err).Str("session_id", sessionID).Msg("cart snapshot save failed")
		if obs.CartSnapshotSaveFailures != nil {
			obs.CartSnapshotSaveFailures.Inc()
		}
	}
}

func countOp(op, result string) {
	if obs.CartOpsTotal != nil {
		obs.CartOpsTotal.WithLabelValues(op, result).Inc()
	}
}

// opResult maps a line lookup outcome onto the metric label.
func opResult(found bool) string {
	if !found {
		return "miss"
	}
	return "ok"
}

func (s *Service) emit(ctx context.Context, topic, sessionID string, payload any) {
	if s.Events == nil {
		return
	}
	if _, err := s.Events.Emit(ctx, topic, sessionID, payload); err != nil {
		s.Logger.Warn().Err(err).Str("topic", topic).Msg("cart event emit failed")
	}
}

// Init creates (or rehydrates) the session's cart and persists an
// initial snapshot so the session key exists with a TTL.
func (s *Service) Init(ctx context.Context, sessionID string) Snapshot {
	st := s.storeFor(ctx, sessionID)
	s.persist(ctx, sessionID, st)
	return st.Snapshot()
}

// View returns the current cart state.
func (s *Service) View(ctx context.Context, sessionID string) Snapshot {
	return s.storeFor(ctx, sessionID).Snapshot()
}

// SetOutlet binds the cart to an outlet, clearing items when the
// guest switches outlets. It reports whether items were cleared.
func (s *Service) SetOutlet(ctx context.Context, sessionID, outletID string) (bool, error) {
	var (
		cleared bool
		err     error
	)
	s.withStore(ctx, sessionID, func(st *Store) {
		cleared, err = st.SetOutlet(outletID)
		if err == nil {
			s.persist(ctx, sessionID, st)
		}
	})
	if err != nil {
		countOp("set_outlet", "rejected")
		return false, err
	}
	countOp("set_outlet", "ok")
	if cleared {
		s.emit(ctx, events.TopicOutletChanged, sessionID, map[string]any{
			"outletId": outletID,
			"cleared":  true,
		})
	}
	return cleared, nil
}

// SetOrderType changes the fulfilment mode.
func (s *Service) SetOrderType(ctx context.Context, sessionID string, t OrderType) error {
	var err error
	s.withStore(ctx, sessionID, func(st *Store) {
		if err = st.SetOrderType(t); err == nil {
			s.persist(ctx, sessionID, st)
		}
	})
	if err != nil {
		countOp("set_order_type", "rejected")
		return err
	}
	countOp("set_order_type", "ok")
	return nil
}

// SetTableID records the dine-in table for the session.
func (s *Service) SetTableID(ctx context.Context, sessionID, tableID string) {
	s.withStore(ctx, sessionID, func(st *Store) {
		st.SetTableID(tableID)
		s.persist(ctx, sessionID, st)
	})
	countOp("set_table", "ok")
}

// AddItem adds a configured menu item to the session's cart.
func (s *Service) AddItem(ctx context.Context, sessionID string, item MenuItemSnapshot, qty int, customizations []SelectedCustomization, addons []SelectedAddon, instructions string) (LineItem, error) {
	var (
		line LineItem
		err  error
	)
	s.withStore(ctx, sessionID, func(st *Store) {
		line, err = st.AddItem(item, qty, customizations, addons, instructions)
		if err == nil {
			s.persist(ctx, sessionID, st)
		}
	})
	if err != nil {
		countOp("add_item", "rejected")
		return LineItem{}, err
	}
	countOp("add_item", "ok")
	return line, nil
}

// UpdateQuantity sets a line's quantity; zero or less removes it.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID, lineID string, qty int) bool {
	var found bool
	s.withStore(ctx, sessionID, func(st *Store) {
		if found = st.UpdateQuantity(lineID, qty); found {
			s.persist(ctx, sessionID, st)
		}
	})
	countOp("update_quantity", opResult(found))
	return found
}

// UpdateSpecialInstructions replaces the note on a cart line.
func (s *Service) UpdateSpecialInstructions(ctx context.Context, sessionID, lineID, instructions string) bool {
	var found bool
	s.withStore(ctx, sessionID, func(st *Store) {
		if found = st.UpdateSpecialInstructions(lineID, instructions); found {
			s.persist(ctx, sessionID, st)
		}
	})
	countOp("update_instructions", opResult(found))
	return found
}

// RemoveItem deletes a cart line.
func (s *Service) RemoveItem(ctx context.Context, sessionID, lineID string) bool {
	var found bool
	s.withStore(ctx, sessionID, func(st *Store) {
		if found = st.RemoveItem(lineID); found {
			s.persist(ctx, sessionID, st)
		}
	})
	countOp("remove_item", opResult(found))
	return found
}

// Clear empties the session's cart and releases the live copy; the
// persisted snapshot keeps the outlet and order type for the session.
func (s *Service) Clear(ctx context.Context, sessionID string) {
	s.withStore(ctx, sessionID, func(st *Store) {
		st.Clear()
		s.persist(ctx, sessionID, st)
	})
	countOp("clear", "ok")
	s.dropLive(ctx, sessionID)
	s.emit(ctx, events.TopicCartCleared, sessionID, map[string]any{"sessionId": sessionID})
}

// ItemQuantity returns the summed quantity of a menu item in the cart.
func (s *Service) ItemQuantity(ctx context.Context, sessionID, menuItemID string) int {
	return s.storeFor(ctx, sessionID).ItemQuantity(menuItemID)
}

// FindExisting returns the line an add with this configuration would
// merge into.
func (s *Service) FindExisting(ctx context.Context, sessionID, menuItemID string, customizations []SelectedCustomization, addons []SelectedAddon) (LineItem, bool) {
	return s.storeFor(ctx, sessionID).FindExisting(menuItemID, customizations, addons)
}
