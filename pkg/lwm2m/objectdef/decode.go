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

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// registryDocument is the JSON rendering of an OMA registry XML file.
type registryDocument struct {
	LWM2M *struct {
		Object registryObject `json:"Object"`
	} `json:"LWM2M"`
}

type registryObject struct {
	ObjectID  json.Number `json:"ObjectID"`
	Name      string      `json:"Name"`
	Resources struct {
		// Item is a single object when the document has one resource.
		Item json.RawMessage `json:"Item"`
	} `json:"Resources"`
}

type registryItem struct {
	ID                json.Number `json:"ID"`
	Name              string      `json:"Name"`
	Operations        string      `json:"Operations"`
	MultipleInstances string      `json:"MultipleInstances"`
	Type              string      `json:"Type"`
}

// Decode parses an object document. Both the flat definition shape and
// the registry shape are accepted.
func Decode(data []byte) (*ObjectDefinition, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty object document")
	}

	var reg registryDocument
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("malformed object document: %w", err)
	}
	var def *ObjectDefinition
	if reg.LWM2M != nil {
		d, err := fromRegistry(&reg.LWM2M.Object)
		if err != nil {
			return nil, err
		}
		def = d
	} else {
		def = &ObjectDefinition{}
		if err := json.Unmarshal(data, def); err != nil {
			return nil, fmt.Errorf("malformed object document: %w", err)
		}
	}
	if err := validate(def); err != nil {
		return nil, err
	}
	return def, nil
}

func fromRegistry(obj *registryObject) (*ObjectDefinition, error) {
	def := &ObjectDefinition{
		ObjectID:   obj.ObjectID.String(),
		ObjectName: obj.Name,
	}
	raw := bytes.TrimSpace(obj.Resources.Item)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return def, nil
	}

	var items []registryItem
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("malformed resource list: %w", err)
		}
	} else {
		var item registryItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("malformed resource: %w", err)
		}
		items = []registryItem{item}
	}

	def.Resources = make([]ResourceDefinition, 0, len(items))
	for _, it := range items {
		def.Resources = append(def.Resources, ResourceDefinition{
			ResourceID:   it.ID.String(),
			Name:         strings.TrimSpace(it.Name),
			Operations:   strings.TrimSpace(it.Operations),
			Multiplicity: it.MultipleInstances,
			ValueType:    it.Type,
		})
	}
	return def, nil
}

func validate(def *ObjectDefinition) error {
	if def.ObjectID == "" {
		return errors.New("object document has no object id")
	}
	seen := make(map[string]struct{}, len(def.Resources))
	for _, r := range def.Resources {
		if r.ResourceID == "" {
			return fmt.Errorf("object %s has a resource without id", def.ObjectID)
		}
		if _, ok := seen[r.ResourceID]; ok {
			return fmt.Errorf("object %s has duplicate resource %s", def.ObjectID, r.ResourceID)
		}
		seen[r.ResourceID] = struct{}{}
	}
	return nil
}
