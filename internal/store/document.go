// Package store persists users, sessions and reset tokens as JSON documents.
//
// Each store keeps one document on disk and rewrites it whole on every
// mutation. A mutex per store serializes the load-modify-save cycle inside
// the process; nothing coordinates separate processes sharing a data dir.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/moby/sys/atomicwriter"
)

// document is a JSON object of records keyed by string, stored in one file.
type document[T any] struct {
	path string
	mu   sync.Mutex
}

func openDocument[T any](path string) (*document[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	d := &document[T]{path: path}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := d.save(map[string]T{}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return d, nil
}

func (d *document[T]) load() (map[string]T, error) {
	records := make(map[string]T)
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return records, nil
		}
		return nil, fmt.Errorf("read %s: %w", d.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", d.path, err)
	}
	return records, nil
}

func (d *document[T]) save(records map[string]T) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.path, err)
	}
	if err := atomicwriter.WriteFile(d.path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", d.path, err)
	}
	return nil
}

// view runs fn against a fresh copy of the records.
func (d *document[T]) view(fn func(records map[string]T) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	records, err := d.load()
	if err != nil {
		return err
	}
	return fn(records)
}

// update loads the records, lets fn mutate them and saves the result when fn
// reports a change. fn's error is returned after any save it asked for, so a
// mutation can be persisted and still surface a failure to the caller.
func (d *document[T]) update(fn func(records map[string]T) (bool, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	records, err := d.load()
	if err != nil {
		return err
	}
	changed, fnErr := fn(records)
	if changed {
		if err := d.save(records); err != nil {
			return err
		}
	}
	return fnErr
}
