package input

import "sync"

// FileStore holds the text of every known file, real or virtual. It is
// the lowest-durability input: edits land here on every keystroke.
//
// Thread-safety: a writer calling SetText must not race a reader; the
// query engine serializes writes against active snapshots.
// The map itself is guarded so concurrent reader snapshots can still
// call Text safely while a write is pending elsewhere.
type FileStore struct {
	mu    sync.RWMutex
	texts map[FileID]string
	paths map[FileID]string
	next  FileID
}

// NewFileStore creates an empty store.
func NewFileStore() *FileStore {
	return &FileStore{texts: make(map[FileID]string), paths: make(map[FileID]string)}
}

// AddFile allocates a new FileID for a file at the given host path with
// the given initial text. Virtual files (macro expansions) use a
// synthetic path such as "<macro-expansion:1234>".
func (fs *FileStore) AddFile(path, text string) FileID {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	id := fs.next
	fs.next++
	fs.paths[id] = path
	fs.texts[id] = text
	return id
}

// SetText updates a file's text. Callers are responsible for then
// calling query.Engine.Set on the corresponding input key so that
// dependents are invalidated; FileStore itself carries no revision.
func (fs *FileStore) SetText(id FileID, text string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.texts[id] = text
}

// Text returns a file's current text.
func (fs *FileStore) Text(id FileID) string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.texts[id]
}

// Path returns the host path (or synthetic virtual-file label) for id.
func (fs *FileStore) Path(id FileID) string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.paths[id]
}

// Paths returns a snapshot of every known file's host path, keyed by
// FileID — for a caller (such as a file-watcher) that needs to map a
// changed path back to the id it was registered under.
func (fs *FileStore) Paths() map[FileID]string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	out := make(map[FileID]string, len(fs.paths))
	for id, p := range fs.paths {
		out[id] = p
	}
	return out
}
