// Package chatstore persists conversations as one JSON file per id.
//
// Saves are atomic: the transcript is written to a temp file and renamed
// over the previous one, so a concurrent read never observes a partially
// written list. Writers for the same id are additionally serialized by a
// per-id lock.
package chatstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	falaichat "github.com/laruss/falai-chat"
)

var (
	// ErrNotFound indicates the conversation does not exist.
	ErrNotFound = errors.New("conversation not found")

	// ErrInvalidID indicates the id is not usable as a file name.
	ErrInvalidID = errors.New("invalid conversation id")
)

// Store is a directory-backed conversation store.
type Store struct {
	dir    string
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a store rooted at dir, creating the directory if needed.
// A nil logger falls back to slog.Default().
func New(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chats directory: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// Create allocates a new empty conversation and returns its id.
func (s *Store) Create() (string, error) {
	for {
		id := uuid.NewString()
		if _, err := os.Stat(s.path(id)); err == nil {
			// UUID collision, practically unreachable.
			continue
		}
		if err := s.Save(id, []falaichat.Message{}); err != nil {
			return "", err
		}
		return id, nil
	}
}

// Read returns the full transcript for id, or ErrNotFound.
func (s *Store) Read(id string) ([]falaichat.Message, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read conversation %s: %w", id, err)
	}

	var messages []falaichat.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse conversation %s: %w", id, err)
	}
	if messages == nil {
		messages = []falaichat.Message{}
	}
	return messages, nil
}

// List returns the ids of every well-formed conversation record in the
// directory. Entries that are not parseable conversation files are skipped
// and logged, never failing the listing.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read chats directory: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := strings.CutSuffix(entry.Name(), ".json")
		if !ok {
			continue
		}
		if _, err := s.Read(id); err != nil {
			s.logger.Warn("skipping malformed conversation record",
				"file", entry.Name(),
				"error", err.Error(),
			)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Save replaces the whole transcript for id. The caller supplies the full
// post-round message list, not a delta.
func (s *Store) Save(id string, messages []falaichat.Message) error {
	if err := validateID(id); err != nil {
		return err
	}
	if messages == nil {
		messages = []falaichat.Message{}
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize conversation %s: %w", id, err)
	}

	// Temp file plus rename keeps readers from seeing a partial write.
	path := s.path(id)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write conversation %s: %w", id, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to commit conversation %s: %w", id, err)
	}
	return nil
}

// Delete removes the conversation wholesale. Referenced assets are not
// touched; the asset store owns them independently.
func (s *Store) Delete(id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	return nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

// validateID rejects ids that could escape the store directory.
func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
