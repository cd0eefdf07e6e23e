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

package v1alpha1

import "encoding/json"

const (
	// ProtocolLwM2M is the only transport protocol the template builder emits.
	ProtocolLwM2M = "lwm2m"
)

// Template is a device template as returned by the platform backend.
// TransportConfig is kept raw because non-LwM2M templates carry
// protocol specific shapes.
type Template struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	ProjectID       string          `json:"project_id"`
	DeviceType      string          `json:"device_type,omitempty"`
	TransportType   string          `json:"transport_type,omitempty"`
	TransportConfig json.RawMessage `json:"transport_config,omitempty"`
	CreatedAt       int64           `json:"created_at,omitempty"`
	UpdatedAt       int64           `json:"updated_at,omitempty"`
}

// TemplateLwM2M is a Template whose transport config has been decoded
// as an LwM2M config.
type TemplateLwM2M struct {
	Template        `json:",inline"`
	TransportConfig TransportConfig `json:"transport_config"`
}

// TemplateList is the list endpoint response.
type TemplateList struct {
	Templates []Template `json:"templates"`
	Total     int        `json:"total"`
	Offset    int        `json:"offset"`
	Limit     int        `json:"limit"`
}

// CreateTemplateRequest is the POST /api/templates body.
type CreateTemplateRequest struct {
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	ProjectID       string          `json:"project_id"`
	DeviceType      string          `json:"device_type,omitempty"`
	TransportType   string          `json:"transport_type"`
	TransportConfig TransportConfig `json:"transport_config"`
}

// UpdateTemplateRequest is the PUT /api/templates/{id} body.
type UpdateTemplateRequest struct {
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	DeviceType      string          `json:"device_type,omitempty"`
	TransportType   string          `json:"transport_type"`
	TransportConfig TransportConfig `json:"transport_config"`
}

// TransportConfig is the LwM2M transport_config payload.
type TransportConfig struct {
	Protocol string            `json:"protocol"`
	Config   map[string]string `json:"config"`
	Info     TransportInfo     `json:"info"`
}

// TransportInfo wraps the per-module configuration.
type TransportInfo struct {
	ModuleConfig []ModuleConfigEntry `json:"module_config"`
}

// ModuleConfigEntry describes one selected LwM2M object.
type ModuleConfigEntry struct {
	ID                 string           `json:"id"`
	ModuleName         string           `json:"module_name"`
	AttributeInfo      []AttributeEntry `json:"attribute_info"`
	NumberOfAttributes int              `json:"numberOfAttributes"`
	LastUpdateTS       int64            `json:"last_update_ts"`
	AllCheckbox        bool             `json:"allcheckbox"`
}

// AttributeEntry describes one checked resource of a module.
type AttributeEntry struct {
	Action string `json:"action"`
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Type   string `json:"type"`
}

// DecodeLwM2M decodes the raw transport config of t.
func (t *Template) DecodeLwM2M() (*TemplateLwM2M, error) {
	out := &TemplateLwM2M{Template: *t}
	if len(t.TransportConfig) == 0 || string(t.TransportConfig) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(t.TransportConfig, &out.TransportConfig); err != nil {
		return nil, err
	}
	return out, nil
}
