/*
Copyright 2026 The KubeEdge Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package catalog holds the bundled list of LwM2M object types a template
// can be built from.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"k8s.io/klog/v2"
)

//go:embed catalog.json
var bundled []byte

// ModuleCatalogEntry describes one available LwM2M object type.
type ModuleCatalogEntry struct {
	CatalogID   string `json:"id"`
	DisplayName string `json:"name"`
	Version     string `json:"version"`
}

// Catalog is an immutable lookup table of module entries.
type Catalog struct {
	entries []ModuleCatalogEntry
	byID    map[string]int
}

var (
	defaultCatalog *Catalog
	defaultOnce    sync.Once
)

// Default returns the bundled catalog. It panics if the bundled data is
// broken, which can only happen with a bad build.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(bytes.NewReader(bundled))
		if err != nil {
			klog.Fatalf("failed to load bundled module catalog: %v", err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load decodes a JSON array of entries.
func Load(r io.Reader) (*Catalog, error) {
	var entries []ModuleCatalogEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode module catalog: %w", err)
	}
	return New(entries)
}

// New builds a catalog from entries. Ids must be unique and non-empty.
func New(entries []ModuleCatalogEntry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]ModuleCatalogEntry, 0, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		e.CatalogID = strings.TrimSpace(e.CatalogID)
		if e.CatalogID == "" {
			return nil, fmt.Errorf("module catalog entry %q has empty id", e.DisplayName)
		}
		if _, ok := c.byID[e.CatalogID]; ok {
			return nil, fmt.Errorf("duplicate module catalog id %s", e.CatalogID)
		}
		c.byID[e.CatalogID] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	sort.SliceStable(c.entries, func(i, j int) bool {
		return lessID(c.entries[i].CatalogID, c.entries[j].CatalogID)
	})
	for i, e := range c.entries {
		c.byID[e.CatalogID] = i
	}
	return c, nil
}

// Get returns the entry for id.
func (c *Catalog) Get(id string) (ModuleCatalogEntry, bool) {
	i, ok := c.byID[id]
	if !ok {
		return ModuleCatalogEntry{}, false
	}
	return c.entries[i], true
}

// List returns every entry ordered by numeric id.
func (c *Catalog) List() []ModuleCatalogEntry {
	out := make([]ModuleCatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Search returns entries whose id or name contains s, ignoring case.
func (c *Catalog) Search(s string) []ModuleCatalogEntry {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return c.List()
	}
	var out []ModuleCatalogEntry
	for _, e := range c.entries {
		if strings.Contains(e.CatalogID, s) || strings.Contains(strings.ToLower(e.DisplayName), s) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// lessID orders numeric ids numerically and anything else lexically after them.
func lessID(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
