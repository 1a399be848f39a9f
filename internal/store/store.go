// Package store is the per-user registry of reward accounts, goals and
// footprint history.
//
// Records are values. Mutations run a caller-supplied function under a
// per-key lock, so concurrent updates of one account or goal are serialized
// while different keys proceed in parallel. An optimistic path
// (Account + CompareAndSwapAccount) is available for callers that cannot hold
// a lock across their computation.
//
// A store opened with a file path persists to a single JSON document written
// atomically under a cross-process lockfile. Saving is optimistic: changes
// are merged into the file as it is at save time, and a record another
// process changed since this store loaded it fails with ErrStateConflict.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"

	"github.com/rshade/greenledger/internal/footprint"
	"github.com/rshade/greenledger/internal/goals"
	"github.com/rshade/greenledger/internal/rewards"
)

// SchemaVersion is the current state file version.
const SchemaVersion = 1

// DefaultHistoryLimit bounds the footprints kept per user.
const DefaultHistoryLimit = 100

type accountRecord struct {
	Account rewards.Account `json:"account"`
	Version uint64          `json:"version"`
}

type stateFile struct {
	Version      int                           `json:"version"`
	Accounts     map[string]accountRecord      `json:"accounts"`
	Goals        map[string]goals.Goal         `json:"goals"`
	GoalVersions map[string]uint64             `json:"goal_versions,omitempty"`
	History      map[string][]footprint.Result `json:"history"`
}

// Store holds all user state. Safe for concurrent use.
type Store struct {
	mu           sync.RWMutex
	accounts     map[string]accountRecord
	goals        map[string]goals.Goal
	goalVersions map[string]uint64
	history      map[string][]footprint.Result

	// Versions seen at the last Load or Save, the records changed since,
	// and footprints appended since. Save checks these against the file.
	baseAccounts  map[string]uint64
	baseGoals     map[string]uint64
	dirtyAccounts map[string]struct{}
	dirtyGoals    map[string]struct{}
	pending       map[string][]footprint.Result

	keys keyedMutex

	filePath     string
	historyLimit int
}

// Option configures a Store.
type Option func(*Store)

// WithHistoryLimit caps stored footprints per user; n <= 0 keeps the default.
func WithHistoryLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithFile backs the store with a JSON state file.
func WithFile(path string) Option {
	return func(s *Store) { s.filePath = path }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		accounts:     make(map[string]accountRecord),
		goals:        make(map[string]goals.Goal),
		goalVersions: make(map[string]uint64),
		history:      make(map[string][]footprint.Result),
		historyLimit: DefaultHistoryLimit,
	}
	s.resetTracking()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open returns a store backed by path and loads its state. A missing file
// yields an empty store.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("determining home directory: %w", err)
		}
		path = filepath.Join(home, ".greenledger", "state.json")
	}
	s := New(append(opts, WithFile(path))...)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// FilePath returns the backing file, or "" for an in-memory store.
func (s *Store) FilePath() string { return s.filePath }

// Load replaces in-memory state with the file contents and discards any
// unsaved changes.
func (s *Store) Load() error {
	if s.filePath == "" {
		return nil
	}
	unlock, err := acquireFileLock(s.filePath)
	if err != nil {
		return fmt.Errorf("acquiring file lock: %w", err)
	}
	defer unlock()

	state, err := readState(s.filePath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.adopt(state)
	return nil
}

// Save merges local changes into the file under the file lock and writes it
// atomically. Records this store changed must still be at the version it
// loaded; otherwise another writer got there first and Save returns
// ErrStateConflict without writing. Records this store did not touch, and
// footprints appended by either side, are kept. In-memory stores ignore Save.
func (s *Store) Save() error {
	if s.filePath == "" {
		return nil
	}
	unlock, err := acquireFileLock(s.filePath)
	if err != nil {
		return fmt.Errorf("acquiring file lock: %w", err)
	}
	defer unlock()

	disk, err := readState(s.filePath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkConflicts(disk); err != nil {
		return err
	}
	merged := s.merge(disk)

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	if err := writeFileAtomic(s.filePath, data); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	s.adopt(merged)
	return nil
}

func readState(path string) (stateFile, error) {
	empty := stateFile{Version: SchemaVersion}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return empty, nil
		}
		return empty, fmt.Errorf("reading state file: %w", err)
	}

	var state stateFile
	if err := json.Unmarshal(data, &state); err != nil {
		return empty, fmt.Errorf("%w: %w", ErrStoreCorrupted, err)
	}
	if state.Version != SchemaVersion {
		return empty, fmt.Errorf("%w: unsupported version %d (expected %d)",
			ErrStoreCorrupted, state.Version, SchemaVersion)
	}
	return state, nil
}

// checkConflicts must be called with s.mu held.
func (s *Store) checkConflicts(disk stateFile) error {
	for id := range s.dirtyAccounts {
		if got, want := disk.Accounts[id].Version, s.baseAccounts[id]; got != want {
			return fmt.Errorf("%w: account %s saved at version %d by another writer, loaded at %d",
				ErrStateConflict, id, got, want)
		}
	}
	for id := range s.dirtyGoals {
		if got, want := disk.GoalVersions[id], s.baseGoals[id]; got != want {
			return fmt.Errorf("%w: goal %s saved at version %d by another writer, loaded at %d",
				ErrStateConflict, id, got, want)
		}
	}
	return nil
}

// merge overlays local changes on disk. Must be called with s.mu held.
func (s *Store) merge(disk stateFile) stateFile {
	out := stateFile{
		Version:      SchemaVersion,
		Accounts:     orEmpty(disk.Accounts),
		Goals:        orEmpty(disk.Goals),
		GoalVersions: orEmpty(disk.GoalVersions),
		History:      orEmpty(disk.History),
	}
	for id := range s.dirtyAccounts {
		out.Accounts[id] = s.accounts[id]
	}
	for id := range s.dirtyGoals {
		out.Goals[id] = s.goals[id]
		out.GoalVersions[id] = s.goalVersions[id]
	}
	for userID, added := range s.pending {
		h := append(append([]footprint.Result(nil), out.History[userID]...), added...)
		if drop := len(h) - s.historyLimit; drop > 0 {
			h = h[drop:]
		}
		out.History[userID] = h
	}
	return out
}

// adopt installs state as both the current and the baseline state. Must be
// called with s.mu held.
func (s *Store) adopt(state stateFile) {
	s.accounts = orEmpty(state.Accounts)
	s.goals = orEmpty(state.Goals)
	s.goalVersions = orEmpty(state.GoalVersions)
	s.history = orEmpty(state.History)
	s.resetTracking()
	for id, rec := range s.accounts {
		s.baseAccounts[id] = rec.Version
	}
	for id, v := range s.goalVersions {
		s.baseGoals[id] = v
	}
}

func (s *Store) resetTracking() {
	s.baseAccounts = make(map[string]uint64)
	s.baseGoals = make(map[string]uint64)
	s.dirtyAccounts = make(map[string]struct{})
	s.dirtyGoals = make(map[string]struct{})
	s.pending = make(map[string][]footprint.Result)
}

func orEmpty[V any](m map[string]V) map[string]V {
	if m == nil {
		return make(map[string]V)
	}
	return m
}

// Account returns the user's account and its version. Unknown users get an
// empty account at version 0.
func (s *Store) Account(userID string) (rewards.Account, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.accounts[userID]
	if !ok {
		return rewards.NewAccount(userID), 0
	}
	return rec.Account, rec.Version
}

// UpdateAccount runs fn on the user's account under the account lock and
// stores the result when fn succeeds. On error the stored account is left as
// it was and fn's returned account is passed through.
func (s *Store) UpdateAccount(userID string, fn func(rewards.Account) (rewards.Account, error)) (rewards.Account, error) {
	unlock := s.keys.lock("account/" + userID)
	defer unlock()

	current, version := s.Account(userID)
	next, err := fn(current)
	if err != nil {
		return next, err
	}
	s.putAccount(userID, next, version+1)
	return next, nil
}

// CompareAndSwapAccount stores next only if the account is still at
// expected. It returns the new version, or ErrStateConflict.
func (s *Store) CompareAndSwapAccount(userID string, expected uint64, next rewards.Account) (uint64, error) {
	unlock := s.keys.lock("account/" + userID)
	defer unlock()

	if _, version := s.Account(userID); version != expected {
		return version, fmt.Errorf("%w: account %s at version %d, expected %d",
			ErrStateConflict, userID, version, expected)
	}
	s.putAccount(userID, next, expected+1)
	return expected + 1, nil
}

func (s *Store) putAccount(userID string, a rewards.Account, version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[userID] = accountRecord{Account: a, Version: version}
	s.dirtyAccounts[userID] = struct{}{}
}

// Users returns every user id with an account, goal or footprint, sorted.
func (s *Store) Users() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for id := range s.accounts {
		seen[id] = struct{}{}
	}
	for _, g := range s.goals {
		seen[g.UserID] = struct{}{}
	}
	for id := range s.history {
		seen[id] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// PutGoal inserts a new goal. Existing ids are rejected with ErrStateConflict.
func (s *Store) PutGoal(g goals.Goal) error {
	unlock := s.keys.lock("goal/" + g.ID)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.goals[g.ID]; exists {
		return fmt.Errorf("%w: goal %s already exists", ErrStateConflict, g.ID)
	}
	s.goals[g.ID] = g
	s.goalVersions[g.ID] = 1
	s.dirtyGoals[g.ID] = struct{}{}
	return nil
}

// Goal returns the goal with id.
func (s *Store) Goal(id string) (goals.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goals[id]
	if !ok {
		return goals.Goal{}, fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	return g, nil
}

// GoalsFor returns the user's goals ordered by creation time.
func (s *Store) GoalsFor(userID string) []goals.Goal {
	s.mu.RLock()
	var out []goals.Goal
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// UpdateGoal runs fn on the goal under the goal lock and stores the result
// when fn succeeds. An unchanged goal keeps its version.
func (s *Store) UpdateGoal(id string, fn func(goals.Goal) (goals.Goal, error)) (goals.Goal, error) {
	unlock := s.keys.lock("goal/" + id)
	defer unlock()

	current, err := s.Goal(id)
	if err != nil {
		return goals.Goal{}, err
	}
	next, err := fn(current)
	if err != nil {
		return current, err
	}
	if next.ID != id {
		return current, fmt.Errorf("%w: goal id changed from %s to %s", ErrStateConflict, id, next.ID)
	}
	if reflect.DeepEqual(current, next) {
		return current, nil
	}

	s.mu.Lock()
	s.goals[id] = next
	s.goalVersions[id]++
	s.dirtyGoals[id] = struct{}{}
	s.mu.Unlock()
	return next, nil
}

// AppendFootprint records r as the user's newest footprint, dropping the
// oldest entries beyond the history limit.
func (s *Store) AppendFootprint(userID string, r footprint.Result) {
	unlock := s.keys.lock("history/" + userID)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.history[userID]
	next := make([]footprint.Result, 0, min(len(h)+1, s.historyLimit))
	if drop := len(h) + 1 - s.historyLimit; drop > 0 {
		h = h[drop:]
	}
	next = append(next, h...)
	next = append(next, r)
	s.history[userID] = next

	if s.filePath != "" {
		p := append(s.pending[userID], r)
		if drop := len(p) - s.historyLimit; drop > 0 {
			p = p[drop:]
		}
		s.pending[userID] = p
	}
}

// History returns a copy of the user's footprints, oldest first.
func (s *Store) History(userID string) []footprint.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]footprint.Result(nil), s.history[userID]...)
}

// LatestFootprint returns the user's newest footprint.
func (s *Store) LatestFootprint(userID string) (footprint.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := s.history[userID]
	if len(h) == 0 {
		return footprint.Result{}, false
	}
	return h[len(h)-1], true
}

// keyedMutex hands out one mutex per key. Entries live for the life of the
// store.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
