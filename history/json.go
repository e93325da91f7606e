package history

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/alanbriolat/media-fetcher/util"
)

// JSONStore keeps the history as a single JSON array file. Every change rewrites the whole file atomically, and
// changes within one process are serialized.
type JSONStore struct {
	path string
	mu   sync.Mutex
	log  *zap.SugaredLogger
}

var _ Store = (*JSONStore)(nil)

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{
		path: path,
		log:  zap.S().Named("history").With("path", path),
	}
}

func (s *JSONStore) Path() string {
	return s.path
}

// load reads the file; a missing or corrupted file is an empty history.
func (s *JSONStore) load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	records, err := Decode(data)
	if err != nil {
		s.log.Warnf("starting with empty history: %v", err)
		return nil, nil
	}
	return records, nil
}

func (s *JSONStore) save(records []Record) error {
	data, err := Encode(records)
	if err != nil {
		return err
	}
	return util.WriteFileAtomic(s.path, data, 0644)
}

func (s *JSONStore) Load() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *JSONStore) Append(r Record) (bool, error) {
	r, ok := r.Existing()
	if !ok {
		s.log.Debug("not recording download with no existing files")
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return false, err
	}
	if err := s.save(prepend(records, r)); err != nil {
		return false, err
	}
	return true, nil
}

func (s *JSONStore) Truncate(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return err
	}
	if n < 0 {
		n = 0
	}
	if len(records) > n {
		records = records[:n]
	}
	return s.save(records)
}

func (s *JSONStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(nil)
}

func (s *JSONStore) Close() error {
	return nil
}
