package queue

import (
	"errors"
	"fmt"
	"strings"

	"docustream/pkg/logging"

	"go.uber.org/zap"
)

// ErrDuplicateName is returned when a file with the same name is queued.
var ErrDuplicateName = errors.New("file already in queue")

// ErrNotFound is returned by operations addressing a missing name or index.
var ErrNotFound = errors.New("file not in queue")

// DuplicateContentError reports content identical to an already-queued file.
type DuplicateContentError struct {
	Name     string // Rejected file.
	Original string // Queued file with the same hash.
}

func (e *DuplicateContentError) Error() string {
	return fmt.Sprintf("duplicate content: %q is identical to %q", e.Name, e.Original)
}

// Queue is the ordered merge input. It is not safe for concurrent use; each
// session owns exactly one.
type Queue struct {
	files  []File
	hashes map[string]string // content hash -> name
	logger *zap.Logger
}

// New returns an empty queue.
func New(logger *zap.Logger) *Queue {
	logger = logging.OrNop(logger)
	return &Queue{hashes: make(map[string]string), logger: logger}
}

// Add appends f. Duplicate names and duplicate content are rejected and
// logged with the name of the original entry.
func (q *Queue) Add(f File) error {
	if f.Hash == "" {
		f.Hash = Hash(f.Content)
	}
	if q.index(f.Name) >= 0 {
		q.logger.Warn("Rejected file with duplicate name", zap.String("file", f.Name))
		return fmt.Errorf("%q: %w", f.Name, ErrDuplicateName)
	}
	if orig, ok := q.hashes[f.Hash]; ok {
		q.logger.Warn("Rejected file with duplicate content",
			zap.String("file", f.Name),
			zap.String("original", orig))
		return &DuplicateContentError{Name: f.Name, Original: orig}
	}
	q.files = append(q.files, f)
	q.hashes[f.Hash] = f.Name
	q.logger.Debug("Queued file", zap.String("file", f.Name), zap.Int("sizeBytes", f.Size()))
	return nil
}

// AddAll queues files in order and returns how many were accepted together
// with the rejection errors.
func (q *Queue) AddAll(files []File) (int, []error) {
	added := 0
	var errs []error
	for _, f := range files {
		if err := q.Add(f); err != nil {
			errs = append(errs, err)
			continue
		}
		added++
	}
	return added, errs
}

// Remove drops the named file.
func (q *Queue) Remove(name string) error {
	i := q.index(name)
	if i < 0 {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	delete(q.hashes, q.files[i].Hash)
	q.files = append(q.files[:i], q.files[i+1:]...)
	return nil
}

// Move relocates the file at index from to index to.
func (q *Queue) Move(from, to int) error {
	if from < 0 || from >= len(q.files) || to < 0 || to >= len(q.files) {
		return fmt.Errorf("move %d -> %d: %w", from, to, ErrNotFound)
	}
	f := q.files[from]
	q.files = append(q.files[:from], q.files[from+1:]...)
	q.files = append(q.files[:to], append([]File{f}, q.files[to:]...)...)
	return nil
}

// Reorder applies a complete new ordering given by names. Every queued name
// must appear exactly once.
func (q *Queue) Reorder(names []string) error {
	if len(names) != len(q.files) {
		return fmt.Errorf("reorder: got %d names for %d files", len(names), len(q.files))
	}
	out := make([]File, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		i := q.index(n)
		if i < 0 || seen[n] {
			return fmt.Errorf("reorder %q: %w", n, ErrNotFound)
		}
		seen[n] = true
		out = append(out, q.files[i])
	}
	q.files = out
	return nil
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.files = nil
	q.hashes = make(map[string]string)
}

// Files returns a copy of the queue contents in order.
func (q *Queue) Files() []File {
	return append([]File(nil), q.files...)
}

// Len is the number of queued files.
func (q *Queue) Len() int {
	return len(q.files)
}

// Search returns files whose name contains substr, case-insensitively.
func (q *Queue) Search(substr string) []File {
	substr = strings.ToLower(substr)
	var out []File
	for _, f := range q.files {
		if strings.Contains(strings.ToLower(f.Name), substr) {
			out = append(out, f)
		}
	}
	return out
}

// TotalSize sums the content length of every queued file.
func (q *Queue) TotalSize() int64 {
	var n int64
	for _, f := range q.files {
		n += int64(f.Size())
	}
	return n
}

func (q *Queue) index(name string) int {
	for i, f := range q.files {
		if f.Name == name {
			return i
		}
	}
	return -1
}
