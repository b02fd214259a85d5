// Package service holds the bot's domain logic: the per-group settings
// store and the admin privilege check.
package service

import (
	"context"
	"sync"
	"time"

	"tg-autodelete/internal/logger"
	"tg-autodelete/internal/models"
)

// bootstrap retry policy
const (
	bootstrapAttempts = 3
	bootstrapBackoff  = 2 * time.Second
)

// SettingRepository is the persistence surface the store needs.
// *storage.SettingRepository implements it.
type SettingRepository interface {
	GetSetting(groupID int64) (*models.GroupSetting, error)
	GetAllSettings() ([]*models.GroupSetting, error)
	UpsertSetting(setting *models.GroupSetting) error
}

// SettingsStore is the authoritative per-group auto-delete delay. Reads are
// served from an in-memory cache that never touches the database; writes go
// to the database first and update the cache only after a confirmed commit,
// so the two layers never disagree past the span of one Set call.
type SettingsStore struct {
	repo         SettingRepository
	defaultDelay time.Duration

	cacheMu sync.RWMutex
	cache   map[int64]time.Duration

	// per-group write locks: concurrent Sets for the same group serialize,
	// different groups never contend
	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

// NewSettingsStore creates a store with an empty cache. Call Bootstrap
// before serving reads.
func NewSettingsStore(repo SettingRepository, defaultDelay time.Duration) *SettingsStore {
	return &SettingsStore{
		repo:         repo,
		defaultDelay: defaultDelay,
		cache:        make(map[int64]time.Duration),
		locks:        make(map[int64]*sync.Mutex),
	}
}

// Bootstrap loads every persisted setting into the cache. It retries a
// bounded number of times; after exhausting them the store keeps running
// with an empty cache and the error is returned so the caller can log the
// degraded state. Startup is never blocked indefinitely.
func (s *SettingsStore) Bootstrap(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= bootstrapAttempts; attempt++ {
		settings, err := s.repo.GetAllSettings()
		if err == nil {
			s.cacheMu.Lock()
			for _, setting := range settings {
				s.cache[setting.GroupID] = time.Duration(setting.DeleteAfter) * time.Second
			}
			s.cacheMu.Unlock()
			logger.Infof("Loaded %d group settings from database into cache", len(settings))
			return nil
		}

		lastErr = err
		logger.Warningf("Bootstrap attempt %d/%d failed: %v", attempt, bootstrapAttempts, err)

		if attempt < bootstrapAttempts {
			select {
			case <-time.After(bootstrapBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	logger.Warningf("Settings bootstrap exhausted %d attempts, continuing with empty cache: %v", bootstrapAttempts, lastErr)
	return lastErr
}

// Get returns the group's delay from the cache, or the default when the
// group was never configured. It never reads the database.
func (s *SettingsStore) Get(groupID int64) time.Duration {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()

	if d, ok := s.cache[groupID]; ok {
		return d
	}
	return s.defaultDelay
}

// Set upserts the group's delay in the database and, only on confirmed
// success, replaces the cache entry. A failed write leaves the cache
// untouched so no split-brain state is ever observable. Last write wins.
func (s *SettingsStore) Set(groupID int64, delay time.Duration) error {
	mu := s.groupLock(groupID)
	mu.Lock()
	defer mu.Unlock()

	return s.setLocked(groupID, delay)
}

// setLocked does the upsert-then-cache write; the caller holds the group lock.
func (s *SettingsStore) setLocked(groupID int64, delay time.Duration) error {
	setting := &models.GroupSetting{
		GroupID:     groupID,
		DeleteAfter: int64(delay / time.Second),
	}
	if err := s.repo.UpsertSetting(setting); err != nil {
		return err
	}

	s.cacheMu.Lock()
	s.cache[groupID] = delay
	s.cacheMu.Unlock()
	return nil
}

// EnsureDefault creates the default setting for a group that has none,
// used when the bot is added to a group. An already-configured group is
// left alone. The group lock is held across the check and the create so a
// concurrent Set can never be overwritten by the default.
func (s *SettingsStore) EnsureDefault(groupID int64) error {
	s.cacheMu.RLock()
	_, cached := s.cache[groupID]
	s.cacheMu.RUnlock()
	if cached {
		return nil
	}

	mu := s.groupLock(groupID)
	mu.Lock()
	defer mu.Unlock()

	// Re-check under the lock: a Set may have won the lock first.
	s.cacheMu.RLock()
	_, cached = s.cache[groupID]
	s.cacheMu.RUnlock()
	if cached {
		return nil
	}

	existing, err := s.repo.GetSetting(groupID)
	if err != nil {
		return err
	}
	if existing != nil {
		s.cacheMu.Lock()
		s.cache[groupID] = time.Duration(existing.DeleteAfter) * time.Second
		s.cacheMu.Unlock()
		return nil
	}

	logger.Infof("Creating default setting for group %d", groupID)
	return s.setLocked(groupID, s.defaultDelay)
}

func (s *SettingsStore) groupLock(groupID int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	mu, ok := s.locks[groupID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[groupID] = mu
	}
	return mu
}
