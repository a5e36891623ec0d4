package refdata

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"carepay/internal/domain"
)

// StaticSource serves reference data from an in-memory snapshot, loadable
// from a JSON file. It stands in for the upstream spreadsheet source in
// development and tests.
type StaticSource struct {
	mu        sync.RWMutex
	children  map[string]Child
	providers map[string]Provider
	families  map[string]Family
}

func NewStaticSource() *StaticSource {
	return &StaticSource{
		children:  make(map[string]Child),
		providers: make(map[string]Provider),
		families:  make(map[string]Family),
	}
}

type snapshot struct {
	Children  []Child    `json:"children"`
	Providers []Provider `json:"providers"`
	Families  []Family   `json:"families"`
}

// LoadFile replaces the snapshot with the contents of a JSON file.
func (s *StaticSource) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("refdata: read %s: %w", path, err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("refdata: parse %s: %w", path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.children = make(map[string]Child, len(snap.Children))
	for _, c := range snap.Children {
		s.children[c.ID] = c
	}
	s.providers = make(map[string]Provider, len(snap.Providers))
	for _, p := range snap.Providers {
		s.providers[p.ID] = p
	}
	s.families = make(map[string]Family, len(snap.Families))
	for _, f := range snap.Families {
		s.families[f.ID] = f
	}
	return nil
}

func (s *StaticSource) AddChild(c Child) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.children[c.ID] = c
}

func (s *StaticSource) AddProvider(p Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[p.ID] = p
}

func (s *StaticSource) AddFamily(f Family) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.families[f.ID] = f
}

func (s *StaticSource) Child(id string) (*Child, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.children[id]
	if !ok {
		return nil, fmt.Errorf("child %s: %w", id, domain.ErrDataNotFound)
	}
	return &c, nil
}

func (s *StaticSource) Children() ([]Child, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Child, 0, len(s.children))
	for _, c := range s.children {
		out = append(out, c)
	}
	return out, nil
}

func (s *StaticSource) Provider(id string) (*Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[id]
	if !ok {
		return nil, fmt.Errorf("provider %s: %w", id, domain.ErrDataNotFound)
	}
	return &p, nil
}

func (s *StaticSource) Family(id string) (*Family, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.families[id]
	if !ok {
		return nil, fmt.Errorf("family %s: %w", id, domain.ErrDataNotFound)
	}
	return &f, nil
}
