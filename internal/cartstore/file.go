package cartstore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"servicecart/internal/domain/cart"
)

// FileStore keeps one cart slot as a JSON file under a state directory,
// the local-storage slot of the storefront. Writes go through a temp file
// and rename so a crash never leaves a half-written slot behind.
type FileStore struct {
	path string
	lg   *zap.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore for the named slot inside dir.
func NewFileStore(dir, slot string, lg *zap.Logger) *FileStore {
	return &FileStore{path: filepath.Join(dir, slot+".json"), lg: lg}
}

// Load reads the slot. A missing file or unparseable content yields an empty
// cart, not an error. Falling back on unparseable content discards whatever
// was in the slot, so it is logged.
func (s *FileStore) Load(_ context.Context) (cart.Cart, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cart.Cart{}, nil
		}
		return cart.Cart{}, errors.Wrapf(err, "read slot %s", s.path)
	}

	items, err := decodeItems(data)
	if err != nil {
		s.lg.Warn("Discarding corrupt cart slot",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return cart.Cart{}, nil
	}
	return cart.New(items...), nil
}

// Save overwrites the slot with the serialized cart.
func (s *FileStore) Save(_ context.Context, c cart.Cart) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "create state dir")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".cart-*")
	if err != nil {
		return errors.Wrap(err, "create temp slot")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(encodeItems(c.Items())); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write slot")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close slot")
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrapf(err, "replace slot %s", s.path)
	}
	return nil
}

// Clear removes the slot file entirely. Clearing an absent slot is a no-op.
func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "remove slot %s", s.path)
	}
	return nil
}
