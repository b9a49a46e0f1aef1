package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/porton/gate-relay/internal/model"
)

const (
	codesFile = "codes.json"
	logsFile  = "logs.json"
)

// FileStore keeps codes and logs as JSON arrays in a data directory. One
// mutex serializes every read-modify-write cycle; files are replaced by
// writing a temp file and renaming it over the original.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore prepares dir and, when seed is set and codes.json does not
// exist yet, writes the default code.
func NewFileStore(dir string, seed bool) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &FileStore{dir: dir}

	if seed {
		_, err := os.Stat(s.path(codesFile))
		if errors.Is(err, fs.ErrNotExist) {
			if err := s.writeJSON(codesFile, []model.AccessCode{model.DefaultSeedCode()}); err != nil {
				return nil, fmt.Errorf("seed codes: %w", err)
			}
			log.Info().Str("dir", dir).Msg("Seeded default access code")
		} else if err != nil {
			return nil, fmt.Errorf("stat codes file: %w", err)
		}
	}

	return s, nil
}

// Codes returns the code repository view of the store.
func (s *FileStore) Codes() CodeRepository {
	return &fileCodeRepo{s}
}

// Logs returns the access log repository view of the store.
func (s *FileStore) Logs() AccessLogRepository {
	return &fileLogRepo{s}
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

// readJSON decodes name into dest; a missing file leaves dest untouched.
func (s *FileStore) readJSON(name string, dest any) error {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) loadCodes() ([]model.AccessCode, error) {
	codes := []model.AccessCode{}
	if err := s.readJSON(codesFile, &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

func (s *FileStore) loadLogs() ([]model.AccessLogEntry, error) {
	entries := []model.AccessLogEntry{}
	if err := s.readJSON(logsFile, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

type fileCodeRepo struct {
	*FileStore
}

func (r *fileCodeRepo) List(ctx context.Context) ([]model.AccessCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	codes, err := r.loadCodes()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(codes, func(i, j int) bool { return codes[i].PIN < codes[j].PIN })
	return codes, nil
}

func (r *fileCodeRepo) FindByPIN(ctx context.Context, pin string) (*model.AccessCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	codes, err := r.loadCodes()
	if err != nil {
		return nil, err
	}
	for i := range codes {
		if codes[i].PIN == pin {
			return &codes[i], nil
		}
	}
	return nil, nil
}

func (r *fileCodeRepo) Create(ctx context.Context, code model.AccessCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	codes, err := r.loadCodes()
	if err != nil {
		return err
	}
	for _, c := range codes {
		if c.PIN == code.PIN {
			return ErrDuplicatePIN
		}
	}
	return r.writeJSON(codesFile, append(codes, code))
}

func (r *fileCodeRepo) Update(ctx context.Context, code model.AccessCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	codes, err := r.loadCodes()
	if err != nil {
		return err
	}
	for i := range codes {
		if codes[i].PIN == code.PIN {
			codes[i] = code
			return r.writeJSON(codesFile, codes)
		}
	}
	return ErrCodeNotFound
}

func (r *fileCodeRepo) Delete(ctx context.Context, pin string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	codes, err := r.loadCodes()
	if err != nil {
		return err
	}
	kept := codes[:0]
	for _, c := range codes {
		if c.PIN != pin {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(codes) {
		return nil
	}
	return r.writeJSON(codesFile, kept)
}

type fileLogRepo struct {
	*FileStore
}

func (r *fileLogRepo) Append(ctx context.Context, entry model.AccessLogEntry) error {
	prepareEntry(&entry)

	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.loadLogs()
	if err != nil {
		return err
	}
	return r.writeJSON(logsFile, append(entries, entry))
}

func (r *fileLogRepo) ListRecent(ctx context.Context, limit, offset int) ([]model.AccessLogEntry, error) {
	r.mu.Lock()
	entries, err := r.loadLogs()
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	// Stored oldest first; equal timestamps keep reverse insertion order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	if offset >= len(entries) {
		return []model.AccessLogEntry{}, nil
	}
	entries = entries[offset:]
	if limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *fileLogRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.loadLogs()
	if err != nil {
		return 0, err
	}
	kept := entries[:0]
	for _, e := range entries {
		if !e.Timestamp.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	removed := int64(len(entries) - len(kept))
	if removed == 0 {
		return 0, nil
	}
	return removed, r.writeJSON(logsFile, kept)
}
