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

// Package payload derives the persisted LwM2M transport config from a
// selection and recovers a selection from a persisted config.
package payload

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kubeedge/lwm2mconsole/pkg/apis/templates/v1alpha1"
	"github.com/kubeedge/lwm2mconsole/pkg/lwm2m/objectdef"
	"github.com/kubeedge/lwm2mconsole/pkg/lwm2m/resourcekey"
	"github.com/kubeedge/lwm2mconsole/pkg/lwm2m/selection"
)

// Build returns the transport config for state. Modules are emitted in
// selection order and attributes in definition order; a module whose
// definition is not loaded lists its checked keys sorted.
func Build(state selection.SelectionState) v1alpha1.TransportConfig {
	tc := v1alpha1.TransportConfig{
		Protocol: v1alpha1.ProtocolLwM2M,
		Config:   make(map[string]string),
		Info: v1alpha1.TransportInfo{
			ModuleConfig: make([]v1alpha1.ModuleConfigEntry, 0, len(state.SelectedModuleIDs)),
		},
	}

	for _, id := range state.SelectedModuleIDs {
		sum := state.ModuleSummaries[id]
		entry := v1alpha1.ModuleConfigEntry{
			ID:            id,
			ModuleName:    sum.ModuleName,
			AttributeInfo: []v1alpha1.AttributeEntry{},
			LastUpdateTS:  toMillis(sum.LastModifiedAt),
			AllCheckbox:   sum.AllSelected,
		}
		if def, ok := state.Definitions[id]; ok {
			entry.AttributeInfo = attributesFromDefinition(state, def)
		} else {
			entry.AttributeInfo = attributesFromKeys(state, id)
		}
		entry.NumberOfAttributes = len(entry.AttributeInfo)
		for _, attr := range entry.AttributeInfo {
			tc.Config[attr.ID] = attr.Name
		}
		tc.Info.ModuleConfig = append(tc.Info.ModuleConfig, entry)
	}
	return tc
}

func attributesFromDefinition(state selection.SelectionState, def *objectdef.ObjectDefinition) []v1alpha1.AttributeEntry {
	attrs := []v1alpha1.AttributeEntry{}
	for _, r := range def.SelectableResources() {
		key := resourcekey.Format(def.ObjectID, r.ResourceID)
		if !state.IsChecked(key) {
			continue
		}
		attrs = append(attrs, v1alpha1.AttributeEntry{
			Action: r.Operations,
			ID:     key,
			Kind:   r.Multiplicity,
			Name:   state.DisplayName(key),
			Type:   r.ValueType,
		})
	}
	return attrs
}

func attributesFromKeys(state selection.SelectionState, objectID string) []v1alpha1.AttributeEntry {
	keys := state.CheckedKeys(objectID)
	sort.Strings(keys)
	attrs := make([]v1alpha1.AttributeEntry, 0, len(keys))
	for _, key := range keys {
		attrs = append(attrs, v1alpha1.AttributeEntry{
			ID:   key,
			Name: state.DisplayName(key),
		})
	}
	return attrs
}

// ExtractSelection recovers the selection persisted in tc. Checked keys are
// the union of attribute ids and config keys; config values win as display
// names.
func ExtractSelection(tc v1alpha1.TransportConfig) (selection.Seed, error) {
	seed := selection.Seed{DisplayNames: make(map[string]string)}
	if tc.Protocol != "" && tc.Protocol != v1alpha1.ProtocolLwM2M {
		return seed, fmt.Errorf("unsupported transport protocol %q", tc.Protocol)
	}

	modules := make(map[string]bool)
	checked := make(map[string]bool)
	add := func(key, name string) error {
		objectID, _, err := resourcekey.Parse(key)
		if err != nil {
			return err
		}
		if !modules[objectID] {
			return fmt.Errorf("resource %q belongs to module %s which has no module_config entry", key, objectID)
		}
		if !checked[key] {
			checked[key] = true
			seed.Checked = append(seed.Checked, key)
		}
		if name != "" {
			seed.DisplayNames[key] = name
		}
		return nil
	}

	for _, m := range tc.Info.ModuleConfig {
		if m.ID == "" {
			return seed, errors.New("module_config entry without id")
		}
		if modules[m.ID] {
			continue
		}
		modules[m.ID] = true
		seed.Modules = append(seed.Modules, selection.SeedModule{
			ID:             m.ID,
			Name:           m.ModuleName,
			LastModifiedAt: fromMillis(m.LastUpdateTS),
		})
	}
	for _, m := range tc.Info.ModuleConfig {
		for _, attr := range m.AttributeInfo {
			if err := add(attr.ID, attr.Name); err != nil {
				return seed, err
			}
		}
	}

	keys := make([]string, 0, len(tc.Config))
	for key := range tc.Config {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := add(key, tc.Config[key]); err != nil {
			return seed, err
		}
	}
	return seed, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
