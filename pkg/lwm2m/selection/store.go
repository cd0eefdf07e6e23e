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

package selection

import (
	"context"
	"fmt"
	"sync"

	"k8s.io/klog/v2"
	"k8s.io/utils/clock"

	"github.com/kubeedge/lwm2mconsole/pkg/lwm2m/catalog"
	"github.com/kubeedge/lwm2mconsole/pkg/lwm2m/objectdef"
	"github.com/kubeedge/lwm2mconsole/pkg/lwm2m/resourcekey"
	"github.com/kubeedge/lwm2mconsole/pkg/util/slices"
)

// Store holds the in-progress template selection. Every exported method
// takes the store lock for its whole duration, so each operation is applied
// atomically and concurrent callers never observe a partial update.
type Store struct {
	fetcher objectdef.Fetcher
	catalog *catalog.Catalog
	clock   clock.PassiveClock

	mu       sync.Mutex
	selected []string
	checked  map[string]bool
	names    map[string]string
	summary  map[string]*ModuleSummary
	defs     map[string]*objectdef.ObjectDefinition
	status   map[string]*moduleStatus

	// generation is bumped on every fetch start; a result whose generation
	// no longer matches the module's is discarded.
	generation uint64
	// inflight counts running fetches; idle is closed whenever it is zero.
	inflight int
	idle     chan struct{}
}

type moduleStatus struct {
	phase      ModulePhase
	err        error
	generation uint64
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to stamp LastModifiedAt.
func WithClock(c clock.PassiveClock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithCatalog sets the catalog used to name modules before their
// definition is loaded.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Store) {
		s.catalog = c
	}
}

// NewStore returns an empty store that loads definitions with fetcher.
func NewStore(fetcher objectdef.Fetcher, opts ...Option) *Store {
	s := &Store{
		fetcher: fetcher,
		catalog: catalog.Default(),
		clock:   clock.RealClock{},
		checked: make(map[string]bool),
		names:   make(map[string]string),
		summary: make(map[string]*ModuleSummary),
		defs:    make(map[string]*objectdef.ObjectDefinition),
		status:  make(map[string]*moduleStatus),
		idle:    make(chan struct{}),
	}
	close(s.idle)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelectModule adds catalogID to the selection and starts loading its
// definition. Selecting an already selected module is a no-op. The fetch
// is bounded by ctx.
func (s *Store) SelectModule(ctx context.Context, catalogID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isSelected(catalogID) {
		return
	}
	s.selected = append(s.selected, catalogID)
	s.summary[catalogID] = &ModuleSummary{
		ModuleName:      s.moduleName(catalogID),
		SelectableCount: -1,
		LastModifiedAt:  s.clock.Now(),
	}
	s.load(ctx, catalogID)
}

// DeselectModule removes catalogID and everything keyed by it.
func (s *Store) DeselectModule(catalogID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = slices.Without(s.selected, catalogID)
	s.purge(catalogID)
}

// ClearSelection removes every module.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.selected {
		s.purge(id)
	}
	s.selected = nil
}

// ToggleResource flips the checked state of a resource.
func (s *Store) ToggleResource(objectID, resourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setResources(objectID, []string{resourceID}, nil)
}

// SetResourceChecked sets the checked state of a resource to checked.
func (s *Store) SetResourceChecked(objectID, resourceID string, checked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setResources(objectID, []string{resourceID}, &checked)
}

// ToggleAllInModule sets every selectable resource of objectID to target.
func (s *Store) ToggleAllInModule(objectID string, target bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, err := s.definition(objectID)
	if err != nil {
		return err
	}
	var ids []string
	for _, r := range def.SelectableResources() {
		ids = append(ids, r.ResourceID)
	}
	return s.setResources(objectID, ids, &target)
}

// SetResourceDisplayName overrides the display name of key. An empty name
// removes the override.
func (s *Store) SetResourceDisplayName(key, name string) error {
	objectID, _, err := resourcekey.Parse(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isSelected(objectID) {
		return fmt.Errorf("%s: %w", objectID, ErrModuleNotSelected)
	}
	if name == "" {
		delete(s.names, key)
		return nil
	}
	s.names[key] = name
	return nil
}

// RetryModule restarts the definition fetch of a failed module.
func (s *Store) RetryModule(ctx context.Context, catalogID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isSelected(catalogID) {
		return fmt.Errorf("%s: %w", catalogID, ErrModuleNotSelected)
	}
	if st := s.status[catalogID]; st != nil && st.phase != ModuleFailed {
		return nil
	}
	s.load(ctx, catalogID)
	return nil
}

// Status returns the fetch status of catalogID.
func (s *Store) Status(catalogID string) (ModuleStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.status[catalogID]
	if !ok {
		return ModuleStatus{}, false
	}
	return ModuleStatus{Phase: st.phase, Err: st.err}, true
}

// Wait blocks until no definition fetch is in flight.
func (s *Store) Wait() {
	_ = s.WaitContext(context.Background())
}

// WaitContext blocks until no definition fetch is in flight or ctx is done.
// Fetches started while waiting are waited for too.
func (s *Store) WaitContext(ctx context.Context) error {
	for {
		s.mu.Lock()
		idle, n := s.idle, s.inflight
		s.mu.Unlock()
		if n == 0 {
			return nil
		}
		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() SelectionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := SelectionState{
		SelectedModuleIDs:    append([]string(nil), s.selected...),
		CheckedResources:     make(map[string]bool, len(s.checked)),
		ResourceDisplayNames: make(map[string]string, len(s.names)),
		ModuleSummaries:      make(map[string]ModuleSummary, len(s.summary)),
		Definitions:          make(map[string]*objectdef.ObjectDefinition, len(s.selected)),
		Statuses:             make(map[string]ModuleStatus, len(s.status)),
	}
	for k, v := range s.checked {
		state.CheckedResources[k] = v
	}
	for k, v := range s.names {
		state.ResourceDisplayNames[k] = v
	}
	for k, v := range s.summary {
		state.ModuleSummaries[k] = *v
	}
	for _, id := range s.selected {
		if def, ok := s.defs[id]; ok {
			state.Definitions[id] = def
		}
	}
	for k, v := range s.status {
		state.Statuses[k] = ModuleStatus{Phase: v.phase, Err: v.err}
	}
	return state
}

// Hydrate replaces the state with a persisted selection and starts loading
// the definitions of its modules.
func (s *Store) Hydrate(ctx context.Context, seed Seed) error {
	for _, key := range seed.Checked {
		objectID, _, err := resourcekey.Parse(key)
		if err != nil {
			return err
		}
		if !seedHasModule(seed, objectID) {
			return fmt.Errorf("resource %q belongs to module %s which is not in the template", key, objectID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.selected {
		s.purge(id)
	}
	s.selected = nil

	for _, m := range seed.Modules {
		if s.isSelected(m.ID) {
			continue
		}
		s.selected = append(s.selected, m.ID)
		name := m.Name
		if name == "" {
			name = s.moduleName(m.ID)
		}
		s.summary[m.ID] = &ModuleSummary{
			ModuleName:      name,
			SelectableCount: -1,
			LastModifiedAt:  m.LastModifiedAt,
		}
	}
	for _, key := range seed.Checked {
		s.checked[key] = true
		if name, ok := seed.DisplayNames[key]; ok && name != "" {
			s.names[key] = name
		}
	}
	for _, id := range s.selected {
		s.recount(id)
		s.load(ctx, id)
	}
	klog.V(4).Infof("hydrated selection with %d modules and %d resources", len(s.selected), len(seed.Checked))
	return nil
}

func seedHasModule(seed Seed, id string) bool {
	for _, m := range seed.Modules {
		if m.ID == id {
			return true
		}
	}
	return false
}

// load must be called with s.mu held.
func (s *Store) load(ctx context.Context, catalogID string) {
	if def, ok := s.defs[catalogID]; ok {
		s.status[catalogID] = &moduleStatus{phase: ModuleReady}
		s.ready(catalogID, def)
		return
	}

	s.generation++
	gen := s.generation
	s.status[catalogID] = &moduleStatus{phase: ModulePending, generation: gen}

	if s.inflight == 0 {
		s.idle = make(chan struct{})
	}
	s.inflight++
	go func() {
		def, err := s.fetcher.Fetch(ctx, catalogID)
		s.finish(catalogID, gen, def, err)
	}()
}

func (s *Store) finish(catalogID string, gen uint64, def *objectdef.ObjectDefinition, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.fetchDone()

	st, ok := s.status[catalogID]
	if !ok || st.generation != gen || !s.isSelected(catalogID) {
		klog.V(4).Infof("dropping stale definition result for module %s", catalogID)
		return
	}
	if err != nil {
		klog.Errorf("failed to load definition of module %s: %v", catalogID, err)
		st.phase = ModuleFailed
		st.err = err
		return
	}
	s.defs[catalogID] = def
	st.phase = ModuleReady
	st.err = nil
	s.ready(catalogID, def)
}

// fetchDone must be called with s.mu held.
func (s *Store) fetchDone() {
	s.inflight--
	if s.inflight == 0 {
		close(s.idle)
	}
}

// ready drops checked keys the definition cannot back and recounts.
func (s *Store) ready(catalogID string, def *objectdef.ObjectDefinition) {
	for key := range s.checked {
		if !resourcekey.BelongsTo(key, catalogID) {
			continue
		}
		_, resourceID, _ := resourcekey.Parse(key)
		if r, ok := def.Resource(resourceID); !ok || !r.Selectable() {
			klog.Warningf("module %s has no selectable resource %s, unchecking", catalogID, resourceID)
			delete(s.checked, key)
			delete(s.names, key)
		}
	}
	s.recount(catalogID)
}

func (s *Store) definition(objectID string) (*objectdef.ObjectDefinition, error) {
	if !s.isSelected(objectID) {
		return nil, fmt.Errorf("%s: %w", objectID, ErrModuleNotSelected)
	}
	if def, ok := s.defs[objectID]; ok {
		return def, nil
	}
	if st := s.status[objectID]; st != nil && st.phase == ModuleFailed {
		return nil, fmt.Errorf("%s: %w: %v", objectID, ErrDefinitionUnavailable, st.err)
	}
	return nil, fmt.Errorf("%s: %w", objectID, ErrDefinitionPending)
}

// setResources applies a toggle, or an explicit value when target is set,
// to every listed resource. Nothing is applied if any resource is rejected.
func (s *Store) setResources(objectID string, resourceIDs []string, target *bool) error {
	def, err := s.definition(objectID)
	if err != nil {
		return err
	}
	for _, id := range resourceIDs {
		if r, ok := def.Resource(id); !ok || !r.Selectable() {
			return fmt.Errorf("%s: %w", resourcekey.Format(objectID, id), ErrResourceNotSelectable)
		}
	}

	changed := false
	for _, id := range resourceIDs {
		key := resourcekey.Format(objectID, id)
		prev := s.checked[key]
		next := !prev
		if target != nil {
			next = *target
		}
		if next == prev {
			continue
		}
		if next {
			s.checked[key] = true
		} else {
			delete(s.checked, key)
		}
		changed = true
	}
	if changed {
		s.summary[objectID].LastModifiedAt = s.clock.Now()
	}
	s.recount(objectID)
	return nil
}

// recount rebuilds the summary of objectID from the checked map.
func (s *Store) recount(objectID string) {
	sum, ok := s.summary[objectID]
	if !ok {
		return
	}
	count := 0
	for key, v := range s.checked {
		if v && resourcekey.BelongsTo(key, objectID) {
			count++
		}
	}
	sum.CheckedCount = count

	def, ok := s.defs[objectID]
	if !ok {
		sum.SelectableCount = -1
		sum.AllSelected = false
		return
	}
	sum.SelectableCount = len(def.SelectableResources())
	sum.AllSelected = count == sum.SelectableCount
}

func (s *Store) purge(catalogID string) {
	for key := range s.checked {
		if resourcekey.BelongsTo(key, catalogID) {
			delete(s.checked, key)
		}
	}
	for key := range s.names {
		if resourcekey.BelongsTo(key, catalogID) {
			delete(s.names, key)
		}
	}
	delete(s.summary, catalogID)
	delete(s.status, catalogID)
}

func (s *Store) isSelected(catalogID string) bool {
	return slices.Contains(s.selected, catalogID)
}

func (s *Store) moduleName(catalogID string) string {
	if s.catalog != nil {
		if e, ok := s.catalog.Get(catalogID); ok {
			return e.DisplayName
		}
	}
	return catalogID
}
