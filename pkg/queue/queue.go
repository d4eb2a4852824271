// Package queue persists the list of album URLs still to be processed.
//
// The queue is a plain text file with one URL per line. Every mutation
// rewrites the whole file through a temporary file and an atomic rename, so
// a crash mid-write leaves either the old or the new list on disk.
package queue

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"eromedl/pkg/logger"
)

// WorkQueue is an ordered list of pending album URLs backed by a file
type WorkQueue struct {
	path   string
	items  []string
	mu     sync.Mutex
	logger logger.Logger
}

// Load reads the queue at path. A missing file yields an empty queue.
func Load(path string, log logger.Logger) (*WorkQueue, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	q := &WorkQueue{path: path, logger: log}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.WithField("path", path).Debug("Queue file not found, starting empty")
		return q, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open queue file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			q.items = append(q.items, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read queue file: %w", err)
	}

	log.InfoWithFields("Queue loaded", map[string]interface{}{
		"path":    path,
		"pending": len(q.items),
	})
	return q, nil
}

// Path returns the backing file path
func (q *WorkQueue) Path() string {
	return q.path
}

// Pending returns a copy of the queued URLs in order
func (q *WorkQueue) Pending() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]string, len(q.items))
	copy(out, q.items)
	return out
}

// Len returns the number of queued URLs
func (q *WorkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Contains reports whether url is queued
func (q *WorkQueue) Contains(url string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.indexOf(url) >= 0
}

func (q *WorkQueue) indexOf(url string) int {
	for i, item := range q.items {
		if item == url {
			return i
		}
	}
	return -1
}

// Add appends URLs that are not already queued and persists. It returns the
// number of URLs added.
func (q *WorkQueue) Add(urls ...string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	added := 0
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || q.indexOf(u) >= 0 {
			continue
		}
		q.items = append(q.items, u)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, q.save()
}

// Replace discards the current contents and writes urls, deduplicated
func (q *WorkQueue) Replace(urls []string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	seen := make(map[string]bool, len(urls))
	items := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		items = append(items, u)
	}
	q.items = items
	return q.save()
}

// MarkDone removes url from the queue and persists. Unknown URLs are ignored.
func (q *WorkQueue) MarkDone(url string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexOf(url)
	if i < 0 {
		q.logger.WithField("url", url).Debug("URL not in queue, nothing to remove")
		return nil
	}
	q.items = append(q.items[:i], q.items[i+1:]...)

	if err := q.save(); err != nil {
		return err
	}
	q.logger.WithField("url", url).Info("Removed processed URL")
	return nil
}

// save writes the queue atomically. Callers hold q.mu.
func (q *WorkQueue) save() error {
	dir := filepath.Dir(q.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create queue directory: %w", err)
	}

	file, err := os.CreateTemp(dir, filepath.Base(q.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary queue file: %w", err)
	}
	tempPath := file.Name()

	w := bufio.NewWriter(file)
	for _, item := range q.items {
		w.WriteString(item)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write queue file: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync queue file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close queue file: %w", err)
	}

	if err := os.Rename(tempPath, q.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace queue file: %w", err)
	}

	q.logger.DebugWithFields("Queue saved", map[string]interface{}{
		"path":    q.path,
		"pending": len(q.items),
	})
	return nil
}
