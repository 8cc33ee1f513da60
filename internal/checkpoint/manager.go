package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// nowFunc returns the current time. Overridden in tests.
var nowFunc = time.Now

// Manager persists snapshots durably. Every save writes a temporary file
// in the destination directory, syncs it, and renames it over the
// destination, so a crash at any point leaves either the previous or the
// new snapshot fully intact and never a partial file.
type Manager struct {
	path   string
	logger *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager persisting to path.
func NewManager(path string, opts ...ManagerOption) *Manager {
	m := &Manager{path: path}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Path returns the checkpoint file location.
func (m *Manager) Path() string {
	return m.path
}

// Load reads the snapshot from disk. An absent file yields a fresh
// snapshot. A corrupt file also yields a fresh snapshot, with a visible
// warning, because losing resumability is recoverable while refusing to
// start is not. An unsupported format version is the one fatal case: it
// means the file is valid but written by an incompatible release, and
// silently discarding it would throw away real progress.
func (m *Manager) Load() (*Snapshot, error) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		m.logger.Warn("checkpoint file is corrupt, starting fresh",
			"path", m.path,
			"error", err,
		)
		return NewSnapshot(), nil
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: file version %d, supported version %d",
			ErrUnsupportedVersion, snap.Version, snapshotVersion)
	}

	// Maps omitted from an older but same-version file must not be nil.
	if snap.Completed == nil {
		snap.Completed = make(map[string]bool)
	}
	if snap.Seen == nil {
		snap.Seen = make(map[string]bool)
	}
	if snap.Failed == nil {
		snap.Failed = make(map[string]*Failure)
	}
	if snap.Dedup.FuzzySignatures == nil {
		snap.Dedup.FuzzySignatures = make(map[string]string)
	}
	return &snap, nil
}

// Save persists the snapshot atomically.
func (m *Manager) Save(snap *Snapshot) error {
	snap.Version = snapshotVersion
	snap.UpdatedAt = nowFunc()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create checkpoint directory: %w", err)
	}

	// The temporary file must live in the same directory as the
	// destination: rename is only atomic within one filesystem.
	tmp, err := os.CreateTemp(dir, filepath.Base(m.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temporary checkpoint: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // best-effort cleanup after rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec // write error takes precedence
		return fmt.Errorf("write temporary checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck,gosec // sync error takes precedence
		return fmt.Errorf("sync temporary checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temporary checkpoint: %w", err)
	}

	if err := os.Rename(tmpName, m.path); err != nil {
		return fmt.Errorf("rename checkpoint into place: %w", err)
	}
	return nil
}

// ResetFull discards the checkpoint file entirely. The next load starts
// a completely fresh session.
func (m *Manager) ResetFull() error {
	err := os.Remove(m.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove checkpoint: %w", err)
	}
	return nil
}

// ResetPartial clears completed targets and counters while retaining
// seen targets, failure history, and dedup state. This re-enables
// dispatching known targets without ever re-persisting known content.
func (m *Manager) ResetPartial() error {
	snap, err := m.Load()
	if err != nil {
		return err
	}
	snap.Completed = make(map[string]bool)
	snap.Stats = Stats{}
	return m.Save(snap)
}
