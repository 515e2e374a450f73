// Package bookmarks keeps titled addresses for the user.
//
// Titles and addresses are stored as given: nothing is validated and
// nothing is deduplicated, that is up to the caller.
package bookmarks

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-yaml"
)

type Bookmark struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

func (b Bookmark) String() string {
	return b.Title + ": " + b.URL
}

// Store is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	items []Bookmark
}

func New() *Store {
	return &Store{}
}

func (s *Store) Add(title, url string) {
	s.mu.Lock()
	s.items = append(s.items, Bookmark{Title: title, URL: url})
	s.mu.Unlock()
}

// List returns the bookmarks in the order they were added.
func (s *Store) List() []Bookmark {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Bookmark, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Save writes the bookmarks to path as a YAML list, replacing the file
// atomically.
func (s *Store) Save(path string) error {
	data, err := yaml.Marshal(s.List())
	if err != nil {
		return fmt.Errorf("bookmarks: encode: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".bookmarks-*")
	if err != nil {
		return fmt.Errorf("bookmarks: save: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("bookmarks: save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("bookmarks: save: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("bookmarks: save: %w", err)
	}
	return nil
}

// Load reads a store saved by [Store.Save]. A missing file yields an
// empty store.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("bookmarks: load: %w", err)
	}
	var items []Bookmark
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("bookmarks: decode %s: %w", path, err)
	}
	return &Store{items: items}, nil
}
