package memory

import (
	"maps"
	"sync"

	"github.com/custodia-labs/sercha-voice/internal/adapters/driven/config/coerce"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in a map. It backs tests and embedded use
// where nothing should touch disk; Save and Load do nothing.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore creates a store seeded with the given maps, later maps
// winning.
func NewConfigStore(seed ...map[string]any) *ConfigStore {
	s := &ConfigStore{values: make(map[string]any)}
	for _, m := range seed {
		maps.Copy(s.values, m)
	}
	return s
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *ConfigStore) GetString(key string) string        { return coerce.String(s.Get(key)) }
func (s *ConfigStore) GetInt(key string) int              { return coerce.Int(s.Get(key)) }
func (s *ConfigStore) GetFloat(key string) float64        { return coerce.Float(s.Get(key)) }
func (s *ConfigStore) GetBool(key string) bool            { return coerce.Bool(s.Get(key)) }
func (s *ConfigStore) GetStringSlice(key string) []string { return coerce.Strings(s.Get(key)) }

func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *ConfigStore) Save() error  { return nil }
func (s *ConfigStore) Load() error  { return nil }
func (s *ConfigStore) Path() string { return ":memory:" }
