package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/educa-pb/demandas-service/internal/domain"
)

// FileChamadoStore keeps tickets as a pretty-printed JSON array on disk.
type FileChamadoStore struct {
	path     string
	mu       sync.Mutex
	logger   *zap.Logger
	recorder DegradationRecorder
}

// NewFileChamadoStore builds a store over path. recorder may be nil.
func NewFileChamadoStore(path string, logger *zap.Logger, recorder DegradationRecorder) *FileChamadoStore {
	return &FileChamadoStore{path: path, logger: logger, recorder: recorder}
}

// Path returns the backing file.
func (s *FileChamadoStore) Path() string {
	return s.path
}

// ReadAll returns every ticket. A missing, empty or unparseable file yields an
// empty collection.
func (s *FileChamadoStore) ReadAll(ctx context.Context) ([]domain.Chamado, error) {
	chamados, _, err := s.read()
	return chamados, err
}

// WriteAll replaces the stored collection.
func (s *FileChamadoStore) WriteAll(ctx context.Context, chamados []domain.Chamado) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(chamados)
}

// Update applies fn to the current collection and persists the result.
func (s *FileChamadoStore) Update(ctx context.Context, fn MutateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, corrupt, err := s.read()
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if corrupt {
		s.preserveCorrupt()
	}
	return s.write(next)
}

// Version returns the file modification time in nanoseconds, 0 when absent.
func (s *FileChamadoStore) Version(ctx context.Context) (int64, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("stat chamados: %w", err)
	}
	return info.ModTime().UnixNano(), nil
}

func (s *FileChamadoStore) read() ([]domain.Chamado, bool, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("chamados file absent; treating as empty", zap.String("path", s.path))
			return []domain.Chamado{}, false, nil
		}
		return nil, false, fmt.Errorf("read chamados: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return []domain.Chamado{}, false, nil
	}

	var chamados []domain.Chamado
	if err := json.Unmarshal(raw, &chamados); err != nil {
		s.logger.Warn("chamados file is not a valid ticket array; treating as empty",
			zap.String("path", s.path), zap.Error(err))
		if s.recorder != nil {
			s.recorder.RecordStoreDegraded("invalid_json")
		}
		return []domain.Chamado{}, true, nil
	}
	if chamados == nil {
		chamados = []domain.Chamado{}
	}
	return chamados, false, nil
}

// preserveCorrupt copies an unparseable file aside before it gets overwritten.
func (s *FileChamadoStore) preserveCorrupt() {
	backup := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().UnixNano())
	if err := os.Rename(s.path, backup); err != nil {
		s.logger.Warn("could not preserve corrupt chamados file", zap.Error(err))
		return
	}
	s.logger.Warn("corrupt chamados file preserved", zap.String("backup", backup))
}

func (s *FileChamadoStore) write(chamados []domain.Chamado) error {
	if chamados == nil {
		chamados = []domain.Chamado{}
	}
	data, err := EncodeChamados(chamados)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create chamados dir: %w", err)
	}

	// Atomic write: temp file + rename.
	tmpFile, err := os.CreateTemp(dir, ".chamados-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp chamados file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("write chamados: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("sync chamados: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp chamados file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename chamados file: %w", err)
	}

	success = true
	return nil
}

// EncodeChamados renders the collection with two-space indentation and
// struct field order, so diffs of the file stay readable.
func EncodeChamados(chamados []domain.Chamado) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(chamados); err != nil {
		return nil, fmt.Errorf("encode chamados: %w", err)
	}
	return buf.Bytes(), nil
}
