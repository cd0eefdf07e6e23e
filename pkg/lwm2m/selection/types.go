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
	"errors"
	"time"

	"github.com/kubeedge/lwm2mconsole/pkg/lwm2m/objectdef"
	"github.com/kubeedge/lwm2mconsole/pkg/lwm2m/resourcekey"
	"github.com/kubeedge/lwm2mconsole/pkg/util/slices"
)

var (
	// ErrModuleNotSelected is returned for operations on a module that is
	// not part of the selection.
	ErrModuleNotSelected = errors.New("module is not selected")
	// ErrDefinitionPending is returned while the module's definition is
	// still being fetched.
	ErrDefinitionPending = errors.New("module definition is not loaded yet")
	// ErrDefinitionUnavailable is returned when the definition fetch failed.
	ErrDefinitionUnavailable = errors.New("module definition is unavailable")
	// ErrResourceNotSelectable is returned for resources that are unknown
	// or whose operations exclude them from templates.
	ErrResourceNotSelectable = errors.New("resource is not selectable")
)

// ModulePhase is the detail-fetch phase of a selected module.
type ModulePhase string

const (
	ModulePending ModulePhase = "Pending"
	ModuleReady   ModulePhase = "Ready"
	ModuleFailed  ModulePhase = "Failed"
)

// ModuleStatus is the fetch status of a selected module.
type ModuleStatus struct {
	Phase ModulePhase
	// Err is set when Phase is ModuleFailed.
	Err error
}

// ModuleSummary is the per-module rollup of checked resources.
type ModuleSummary struct {
	ModuleName string
	// CheckedCount is the number of checked resources of the module.
	CheckedCount int
	// SelectableCount is the number of selectable resources, or -1 while
	// the definition is not loaded.
	SelectableCount int
	// AllSelected is CheckedCount == SelectableCount once the definition
	// is loaded, and false before.
	AllSelected bool
	// LastModifiedAt is when the module's checked set last changed.
	LastModifiedAt time.Time
}

// SelectionState is an immutable view of a Store. Definitions are shared
// with the store and must be treated as read-only.
type SelectionState struct {
	SelectedModuleIDs    []string
	CheckedResources     map[string]bool
	ResourceDisplayNames map[string]string
	ModuleSummaries      map[string]ModuleSummary
	Definitions          map[string]*objectdef.ObjectDefinition
	Statuses             map[string]ModuleStatus
}

// IsSelected reports whether objectID is selected.
func (s SelectionState) IsSelected(objectID string) bool {
	return slices.Contains(s.SelectedModuleIDs, objectID)
}

// IsChecked reports whether the resource key is checked.
func (s SelectionState) IsChecked(key string) bool {
	return s.CheckedResources[key]
}

// DisplayName returns the user override for key, or the default derived
// from the canonical resource name when no override exists.
func (s SelectionState) DisplayName(key string) string {
	if name, ok := s.ResourceDisplayNames[key]; ok {
		return name
	}
	objectID, resourceID, err := resourcekey.Parse(key)
	if err != nil {
		return ""
	}
	if def, ok := s.Definitions[objectID]; ok {
		if r, ok := def.Resource(resourceID); ok {
			return resourcekey.DefaultDisplayName(r.Name)
		}
	}
	return ""
}

// CheckedKeys returns the checked keys of objectID.
func (s SelectionState) CheckedKeys(objectID string) []string {
	var keys []string
	for k, v := range s.CheckedResources {
		if v && resourcekey.BelongsTo(k, objectID) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Seed is the selection recovered from a persisted template.
type Seed struct {
	Modules []SeedModule
	// Checked lists the checked resource keys.
	Checked []string
	// DisplayNames holds the saved display name of checked keys.
	DisplayNames map[string]string
}

// SeedModule is one persisted module entry.
type SeedModule struct {
	ID             string
	Name           string
	LastModifiedAt time.Time
}
