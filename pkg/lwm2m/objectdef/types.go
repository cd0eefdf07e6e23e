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

package objectdef

import "strings"

// Resource operation codes as published in LwM2M object documents.
const (
	OperationRead      = "R"
	OperationWrite     = "W"
	OperationReadWrite = "RW"
	OperationExecute   = "E"
)

// ObjectDefinition is the resource layout of one LwM2M object.
type ObjectDefinition struct {
	ObjectID   string               `json:"objectId"`
	ObjectName string               `json:"objectName"`
	Resources  []ResourceDefinition `json:"resources"`
}

// ResourceDefinition describes one resource of an object.
type ResourceDefinition struct {
	ResourceID   string `json:"resourceId"`
	Name         string `json:"name"`
	Operations   string `json:"operations"`
	Multiplicity string `json:"multiplicity"`
	ValueType    string `json:"valueType"`
}

// Selectable reports whether the resource can be part of a template.
// Executable-only and operation-less resources never are.
func (r ResourceDefinition) Selectable() bool {
	switch strings.ToUpper(strings.TrimSpace(r.Operations)) {
	case OperationRead, OperationWrite, OperationReadWrite:
		return true
	default:
		return false
	}
}

// SelectableResources returns the selectable resources in document order.
func (d *ObjectDefinition) SelectableResources() []ResourceDefinition {
	out := make([]ResourceDefinition, 0, len(d.Resources))
	for _, r := range d.Resources {
		if r.Selectable() {
			out = append(out, r)
		}
	}
	return out
}

// Resource looks up a resource by id.
func (d *ObjectDefinition) Resource(resourceID string) (ResourceDefinition, bool) {
	for _, r := range d.Resources {
		if r.ResourceID == resourceID {
			return r, true
		}
	}
	return ResourceDefinition{}, false
}

// DeepCopy returns a copy sharing no memory with d.
func (d *ObjectDefinition) DeepCopy() *ObjectDefinition {
	if d == nil {
		return nil
	}
	out := *d
	out.Resources = make([]ResourceDefinition, len(d.Resources))
	copy(out.Resources, d.Resources)
	return &out
}
