// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog keeps the in-memory registry of imported documents. It
// guarantees that no two live entries share a source path and that display
// names (stem plus extension) stay unique, except where the caller admitted a
// duplicate name at import time.
package catalog

import (
	"sort"
	"sync"

	"github.com/pdiddy/docbundle/pkg/types"
)

// ConflictFunc decides whether a document whose display name is already in
// use should be imported anyway. It receives the full display name and is
// called synchronously from Add.
type ConflictFunc func(fullName string) bool

// Catalog owns every Entry. The zero value is not usable; call New.
type Catalog struct {
	mu      sync.RWMutex
	entries map[int]types.Entry
	paths   map[string]struct{}
	names   map[string]int // display name -> live entries using it
	nextID  int
}

// New returns an empty catalog whose first entry will receive ID 1.
func New() *Catalog {
	c := &Catalog{}
	c.clear()
	return c
}

func (c *Catalog) clear() {
	c.entries = make(map[int]types.Entry)
	c.paths = make(map[string]struct{})
	c.names = make(map[string]int)
	c.nextID = 1
}

// Add registers a document. It returns false without creating an entry when
// sourcePath is already present; onConflict is not consulted in that case.
// When stem+ext is already used by a live entry, onConflict decides: false
// rejects the document, true admits it alongside the existing one. A nil
// onConflict rejects.
func (c *Catalog) Add(sourcePath, stem, ext string, onConflict ConflictFunc) (types.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.paths[sourcePath]; ok {
		return types.Entry{}, false
	}

	fullName := stem + ext
	if c.names[fullName] > 0 {
		if onConflict == nil || !onConflict(fullName) {
			return types.Entry{}, false
		}
	}

	e := types.Entry{
		ID:         c.nextID,
		SourcePath: sourcePath,
		Stem:       stem,
		Ext:        ext,
	}
	c.entries[e.ID] = e
	c.paths[sourcePath] = struct{}{}
	c.names[fullName]++
	c.nextID++
	return e, true
}

// Rename changes the display stem of entry id. Renaming to the current stem
// succeeds without change. It returns false, leaving the catalog untouched,
// when id is unknown or when the new display name is used by another live
// entry.
func (c *Catalog) Rename(id int, newStem string) (types.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return types.Entry{}, false
	}

	oldName := e.FullName()
	newName := newStem + e.Ext
	if newName == oldName {
		return e, true
	}
	if c.names[newName] > 0 {
		return types.Entry{}, false
	}

	if n := c.names[oldName]; n > 1 {
		c.names[oldName] = n - 1
	} else {
		delete(c.names, oldName)
	}
	c.names[newName]++

	e = e.WithStem(newStem)
	c.entries[id] = e
	return e, true
}

// Get returns the entry with the given id.
func (c *Catalog) Get(id int) (types.Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return e, ok
}

// Entries returns a snapshot of all live entries ordered by id.
func (c *Catalog) Entries() []types.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]types.Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of live entries.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset drops every entry and restarts id allocation at 1.
func (c *Catalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clear()
}
