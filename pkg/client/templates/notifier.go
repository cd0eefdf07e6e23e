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

package templates

// EventType is the kind of template change.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
)

// Event describes a saved template.
type Event struct {
	Type       EventType `json:"type"`
	TemplateID string    `json:"template_id"`
	ProjectID  string    `json:"project_id,omitempty"`
	// Source identifies the console that made the change.
	Source string `json:"source,omitempty"`
}

// Notifier publishes template changes to other consoles.
type Notifier interface {
	Publish(e Event) error
}
