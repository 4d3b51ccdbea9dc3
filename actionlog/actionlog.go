// Package actionlog is the append-only journal behind rollback. Every
// applied action gets one JSON file on disk carrying enough state to
// invert it; enumeration order by modification time is the undo order.
package actionlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"planai/fileops"
	"planai/models"
)

// DefaultDir is where the journal lives unless configured otherwise.
const DefaultDir = ".planai/logs"

// Journal writes and enumerates action log entries.
type Journal struct {
	dir string

	mu     sync.Mutex
	lastID string
	seq    int
}

// New returns a Journal rooted at dir, creating it if needed.
func New(dir string) (*Journal, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &Journal{dir: dir}, nil
}

// Dir returns the journal directory.
func (j *Journal) Dir() string { return j.dir }

// nextID derives an entry id from the current time. Ids are never reused:
// two entries inside the same nanosecond tick get a sequence suffix.
func (j *Journal) nextID() string {
	id := time.Now().UTC().Format("20060102T150405.000000000")

	j.mu.Lock()
	defer j.mu.Unlock()
	if id == j.lastID {
		j.seq++
		return fmt.Sprintf("%s-%d", id, j.seq)
	}
	j.lastID = id
	j.seq = 0
	return id
}

// Log appends one entry and returns its id. The entry file is written
// atomically so a crash cannot leave a partial entry to poison rollback.
func (j *Journal) Log(action models.ActionType, description string, details models.LogDetails) (string, error) {
	id := j.nextID()
	entry := models.LogEntry{
		ID:          id,
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		Action:      string(action),
		Description: description,
		Details:     details,
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal log entry: %w", err)
	}
	data = append(data, '\n')

	if err := fileops.WriteAtomic(j.entryPath(id), data); err != nil {
		return "", err
	}
	return id, nil
}

// Remove deletes the entry file for id. Rollback is the only caller.
func (j *Journal) Remove(id string) error {
	return fileops.DeleteStrict(j.entryPath(id))
}

// Entries returns all journal entries ordered oldest first by file
// modification time.
func (j *Journal) Entries() ([]models.LogEntry, error) {
	infos, err := j.sortedInfos()
	if err != nil {
		return nil, err
	}

	entries := make([]models.LogEntry, 0, len(infos))
	for _, info := range infos {
		entry, err := j.readEntry(info.name)
		if err != nil {
			// A partially written or foreign file: skip rather than
			// abort the whole enumeration.
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Recent returns at most n entries, newest first.
func (j *Journal) Recent(n int) ([]models.LogEntry, error) {
	all, err := j.Entries()
	if err != nil {
		return nil, err
	}
	for i, k := 0, len(all)-1; i < k; i, k = i+1, k-1 {
		all[i], all[k] = all[k], all[i]
	}
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func (j *Journal) entryPath(id string) string {
	return filepath.Join(j.dir, id+".json")
}

func (j *Journal) readEntry(name string) (models.LogEntry, error) {
	var entry models.LogEntry
	data, err := os.ReadFile(filepath.Join(j.dir, name))
	if err != nil {
		return entry, err
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		return entry, fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return entry, nil
}

type entryInfo struct {
	name    string
	modTime time.Time
}

func (j *Journal) sortedInfos() ([]entryInfo, error) {
	dirents, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", j.dir, err)
	}

	infos := make([]entryInfo, 0, len(dirents))
	for _, d := range dirents {
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			continue
		}
		fi, err := d.Info()
		if err != nil {
			continue
		}
		infos = append(infos, entryInfo{name: d.Name(), modTime: fi.ModTime()})
	}

	sort.Slice(infos, func(a, b int) bool {
		if infos[a].modTime.Equal(infos[b].modTime) {
			return infos[a].name < infos[b].name
		}
		return infos[a].modTime.Before(infos[b].modTime)
	})
	return infos, nil
}
