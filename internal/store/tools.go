package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"toolsmith_server/internal/theme"
	"toolsmith_server/internal/types"
)

// Keys used in the KV store.
const (
	HistoryKey          = "toolHistory"
	LastToolKey         = "lastGeneratedToolId"
	customizationPrefix = "toolCustomizations_"
)

// MaxHistory is how many tools the recency list keeps.
const MaxHistory = 10

var (
	// ErrToolNotFound covers both unknown ids and history entries whose
	// customization entry is missing.
	ErrToolNotFound = errors.New("tool configuration not found")
	ErrInvalidTheme = errors.New("invalid theme")
)

func customizationKey(id string) string {
	return customizationPrefix + id
}

// ToolStore keeps generated tools in a KV. Writes are not transactional: a
// failure between the history write and the customization write leaves an
// entry that Load reports as ErrToolNotFound.
type ToolStore struct {
	kv  KV
	now func() time.Time

	mu     sync.Mutex
	lastID int64
}

func NewToolStore(kv KV) *ToolStore {
	return &ToolStore{kv: kv, now: time.Now}
}

// nextID derives an id from the current time in milliseconds, bumped when two
// tools are created within the same millisecond. Callers hold s.mu.
func (s *ToolStore) nextID() string {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

// Create records a newly built tool: prepends it to the history (evicting the
// oldest beyond MaxHistory), stores its customization and marks it as latest.
func (s *ToolStore) Create(ctx context.Context, prompt string, cfg types.ToolConfig, customizations types.ThemeCustomization) (types.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.history(ctx)
	if err != nil {
		return types.HistoryEntry{}, err
	}

	entry := types.HistoryEntry{
		ID:             s.nextID(),
		Prompt:         prompt,
		Date:           s.now().UTC().Format(time.RFC3339),
		ToolConfig:     cfg,
		Customizations: theme.Normalize(customizations),
	}

	history = append([]types.HistoryEntry{entry}, history...)
	var evicted []types.HistoryEntry
	if len(history) > MaxHistory {
		evicted = history[MaxHistory:]
		history = history[:MaxHistory]
	}

	if err := s.putJSON(ctx, HistoryKey, history); err != nil {
		return types.HistoryEntry{}, err
	}
	if err := s.putJSON(ctx, customizationKey(entry.ID), entry.Customizations); err != nil {
		return types.HistoryEntry{}, err
	}
	if err := s.kv.Set(ctx, LastToolKey, []byte(entry.ID)); err != nil {
		return types.HistoryEntry{}, err
	}

	for _, old := range evicted {
		if err := s.kv.Delete(ctx, customizationKey(old.ID)); err != nil {
			log.Printf("WARN: failed to delete customization of evicted tool %s: %v", old.ID, err)
		}
	}

	log.Printf("Stored tool %s (%s); history holds %d entries", entry.ID, cfg.ToolType, len(history))
	return entry, nil
}

// History returns the stored entries, newest first.
func (s *ToolStore) History(ctx context.Context) ([]types.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history(ctx)
}

func (s *ToolStore) history(ctx context.Context) ([]types.HistoryEntry, error) {
	raw, ok, err := s.kv.Get(ctx, HistoryKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []types.HistoryEntry{}, nil
	}
	var history []types.HistoryEntry
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("stored history is corrupt: %w", err)
	}
	return history, nil
}

// Load returns the tool with its current customization.
func (s *ToolStore) Load(ctx context.Context, id string) (types.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, id)
}

func (s *ToolStore) load(ctx context.Context, id string) (types.HistoryEntry, error) {
	history, err := s.history(ctx)
	if err != nil {
		return types.HistoryEntry{}, err
	}

	for _, entry := range history {
		if entry.ID != id {
			continue
		}
		raw, ok, err := s.kv.Get(ctx, customizationKey(id))
		if err != nil {
			return types.HistoryEntry{}, err
		}
		if !ok {
			log.Printf("WARN: history entry %s has no stored customization", id)
			return types.HistoryEntry{}, ErrToolNotFound
		}
		var c types.ThemeCustomization
		if err := json.Unmarshal(raw, &c); err != nil {
			return types.HistoryEntry{}, fmt.Errorf("stored customization for %s is corrupt: %w", id, err)
		}
		entry.Customizations = theme.Normalize(c)
		return entry, nil
	}
	return types.HistoryEntry{}, ErrToolNotFound
}

// UpdateTheme merges a partial theme into the tool's customization and persists
// it immediately. The history snapshot is kept in step.
func (s *ToolStore) UpdateTheme(ctx context.Context, id string, patch []byte) (types.ThemeCustomization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.load(ctx, id)
	if err != nil {
		return types.ThemeCustomization{}, err
	}

	merged, err := theme.Merge(entry.Customizations, patch)
	if err != nil {
		return types.ThemeCustomization{}, fmt.Errorf("%w: %v", ErrInvalidTheme, err)
	}

	if err := s.putJSON(ctx, customizationKey(id), merged); err != nil {
		return types.ThemeCustomization{}, err
	}

	history, err := s.history(ctx)
	if err != nil {
		return merged, nil
	}
	for i := range history {
		if history[i].ID == id {
			history[i].Customizations = merged
		}
	}
	if err := s.putJSON(ctx, HistoryKey, history); err != nil {
		log.Printf("WARN: theme for %s saved but history snapshot not updated: %v", id, err)
	}
	return merged, nil
}

// LatestID returns the id of the most recently created tool.
func (s *ToolStore) LatestID(ctx context.Context) (string, bool, error) {
	raw, ok, err := s.kv.Get(ctx, LastToolKey)
	if err != nil || !ok {
		return "", false, err
	}
	return string(raw), true, nil
}

// Clear removes the history, every customization it references and the latest id.
func (s *ToolStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.history(ctx)
	if err != nil {
		log.Printf("WARN: clearing unreadable history: %v", err)
		history = nil
	}
	for _, entry := range history {
		if err := s.kv.Delete(ctx, customizationKey(entry.ID)); err != nil {
			return err
		}
	}
	if err := s.kv.Delete(ctx, HistoryKey); err != nil {
		return err
	}
	return s.kv.Delete(ctx, LastToolKey)
}

// Ping checks the underlying store.
func (s *ToolStore) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}

func (s *ToolStore) putJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.kv.Set(ctx, key, b)
}
