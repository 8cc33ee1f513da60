package checkpoint

import "time"

// snapshotVersion is the current checkpoint format version. Bumped only
// on incompatible changes; a file with an unknown version fails the load
// instead of being silently reinterpreted.
const snapshotVersion = 1

// Failure tracks a target's session-level retry budget.
type Failure struct {
	// Count is how many terminal failures this target has accumulated.
	Count int `json:"count"`

	// LastReason is the most recent failure description.
	LastReason string `json:"lastReason"`
}

// DedupState holds the deduplicator's exported stores. Fuzzy signatures
// are hex encoded so the file stays portable across architectures.
type DedupState struct {
	URLHashes       []string          `json:"urlHashes"`
	ContentHashes   []string          `json:"contentHashes"`
	FuzzySignatures map[string]string `json:"fuzzySignatures"`
}

// Stats are the session's aggregate counters.
type Stats struct {
	Fetched    int `json:"fetched"`
	Persisted  int `json:"persisted"`
	Failed     int `json:"failed"`
	Duplicates int `json:"duplicates"`
	Blocked    int `json:"blocked"`
}

// Snapshot is the complete durable session state. It is the sole source
// of truth on resume: anything not in the snapshot did not happen.
type Snapshot struct {
	// Version is the format version this file was written with.
	Version int `json:"version"`

	// UpdatedAt is when the snapshot was last persisted.
	UpdatedAt time.Time `json:"updatedAt"`

	// Completed holds the keys of targets that reached a successful
	// terminal outcome. It only grows.
	Completed map[string]bool `json:"completed"`

	// Seen holds every target key ever admitted to the frontier.
	Seen map[string]bool `json:"seen"`

	// Failed maps target keys to their failure budget.
	Failed map[string]*Failure `json:"failed"`

	// Dedup is the deduplicator's exported state.
	Dedup DedupState `json:"dedup"`

	// Stats are the aggregate counters.
	Stats Stats `json:"stats"`
}

// NewSnapshot creates an empty snapshot at the current format version.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Version:   snapshotVersion,
		Completed: make(map[string]bool),
		Seen:      make(map[string]bool),
		Failed:    make(map[string]*Failure),
		Dedup: DedupState{
			FuzzySignatures: make(map[string]string),
		},
	}
}

// MarkSeen records a target key as admitted.
func (s *Snapshot) MarkSeen(key string) {
	s.Seen[key] = true
}

// MarkCompleted records a successful terminal outcome.
func (s *Snapshot) MarkCompleted(key string) {
	s.Completed[key] = true
}

// IsCompleted reports whether the target already reached a successful
// terminal outcome, this session or a previous one.
func (s *Snapshot) IsCompleted(key string) bool {
	return s.Completed[key]
}

// MarkFailed increments the target's failure count and returns the new
// count so the caller can apply its retry bound.
func (s *Snapshot) MarkFailed(key, reason string) int {
	f, ok := s.Failed[key]
	if !ok {
		f = &Failure{}
		s.Failed[key] = f
	}
	f.Count++
	f.LastReason = reason
	return f.Count
}

// FailureCount returns the target's accumulated failure count.
func (s *Snapshot) FailureCount(key string) int {
	if f, ok := s.Failed[key]; ok {
		return f.Count
	}
	return 0
}

// SeenKeys returns all seen target keys, for frontier restoration.
func (s *Snapshot) SeenKeys() []string {
	keys := make([]string, 0, len(s.Seen))
	for k := range s.Seen {
		keys = append(keys, k)
	}
	return keys
}
