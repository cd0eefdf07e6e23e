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

// Package session ties a selection store to the template client for one
// create or edit of a device template.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"k8s.io/klog/v2"
	"k8s.io/utils/clock"

	"github.com/kubeedge/lwm2mconsole/pkg/apis/templates/v1alpha1"
	"github.com/kubeedge/lwm2mconsole/pkg/client/templates"
	"github.com/kubeedge/lwm2mconsole/pkg/lwm2m/catalog"
	"github.com/kubeedge/lwm2mconsole/pkg/lwm2m/objectdef"
	"github.com/kubeedge/lwm2mconsole/pkg/lwm2m/payload"
	"github.com/kubeedge/lwm2mconsole/pkg/lwm2m/selection"
)

// ErrClosed is returned by a canceled session.
var ErrClosed = errors.New("session is closed")

// Deps are the collaborators of a session.
type Deps struct {
	Templates templates.Interface
	Fetcher   objectdef.Fetcher
	// Catalog defaults to catalog.Default().
	Catalog *catalog.Catalog
	// Clock defaults to the real clock.
	Clock clock.PassiveClock
}

// Meta is the non-selection part of a template.
type Meta struct {
	Name        string
	Description string
	DeviceType  string
}

// Session is one create or update of a template.
type Session struct {
	deps      Deps
	store     *selection.Store
	projectID string

	mu         sync.Mutex
	templateID string
	meta       Meta
	closed     bool
}

func newSession(deps Deps) *Session {
	var opts []selection.Option
	if deps.Catalog != nil {
		opts = append(opts, selection.WithCatalog(deps.Catalog))
	}
	if deps.Clock != nil {
		opts = append(opts, selection.WithClock(deps.Clock))
	}
	return &Session{
		deps:  deps,
		store: selection.NewStore(deps.Fetcher, opts...),
	}
}

// NewCreateSession starts an empty template in projectID.
func NewCreateSession(deps Deps, projectID string) (*Session, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project id is required")
	}
	s := newSession(deps)
	s.projectID = projectID
	return s, nil
}

// NewUpdateSession loads templateID and hydrates the selection from its
// transport config. Definitions load in the background.
func NewUpdateSession(ctx context.Context, deps Deps, templateID string) (*Session, error) {
	tpl, err := deps.Templates.GetTemplateByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if tpl.TransportType != "" && tpl.TransportType != v1alpha1.ProtocolLwM2M {
		return nil, fmt.Errorf("template %s uses transport %q, only %q can be edited", templateID, tpl.TransportType, v1alpha1.ProtocolLwM2M)
	}
	lw, err := tpl.DecodeLwM2M()
	if err != nil {
		return nil, fmt.Errorf("decode transport config of template %s: %w", templateID, err)
	}
	seed, err := payload.ExtractSelection(lw.TransportConfig)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", templateID, err)
	}

	s := newSession(deps)
	s.projectID = tpl.ProjectID
	s.templateID = tpl.ID
	s.meta = Meta{Name: tpl.Name, Description: tpl.Description, DeviceType: tpl.DeviceType}
	if err := s.store.Hydrate(ctx, seed); err != nil {
		return nil, fmt.Errorf("template %s: %w", templateID, err)
	}
	klog.V(2).Infof("editing template %s (%s) with %d modules", tpl.ID, tpl.Name, len(seed.Modules))
	return s, nil
}

// Store returns the selection being edited.
func (s *Session) Store() *selection.Store {
	return s.store
}

// TemplateID is empty until a create session is submitted.
func (s *Session) TemplateID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.templateID
}

// ProjectID returns the project the template belongs to.
func (s *Session) ProjectID() string {
	return s.projectID
}

// Meta returns the loaded or last submitted metadata.
func (s *Session) Meta() Meta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// Payload returns the transport config for the current selection.
func (s *Session) Payload() v1alpha1.TransportConfig {
	return payload.Build(s.store.Snapshot())
}

// Wait blocks until every module definition has been fetched or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	return s.store.WaitContext(ctx)
}

// Submit waits for pending definitions, then creates or updates the
// template. A rejected submit leaves the selection untouched.
func (s *Session) Submit(ctx context.Context, meta Meta) (*v1alpha1.Template, error) {
	s.mu.Lock()
	closed := s.closed
	templateID := s.templateID
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	if err := s.Wait(ctx); err != nil {
		return nil, err
	}
	state := s.store.Snapshot()
	for _, id := range state.SelectedModuleIDs {
		if st := state.Statuses[id]; st.Phase == selection.ModuleFailed {
			return nil, fmt.Errorf("module %s: %w: %v", id, selection.ErrDefinitionUnavailable, st.Err)
		}
	}
	tc := payload.Build(state)

	var (
		out *v1alpha1.Template
		err error
	)
	if templateID == "" {
		out, err = s.deps.Templates.CreateTemplate(ctx, &v1alpha1.CreateTemplateRequest{
			Name:            meta.Name,
			Description:     meta.Description,
			ProjectID:       s.projectID,
			DeviceType:      meta.DeviceType,
			TransportType:   v1alpha1.ProtocolLwM2M,
			TransportConfig: tc,
		})
	} else {
		out, err = s.deps.Templates.UpdateTemplate(ctx, templateID, &v1alpha1.UpdateTemplateRequest{
			Name:            meta.Name,
			Description:     meta.Description,
			DeviceType:      meta.DeviceType,
			TransportType:   v1alpha1.ProtocolLwM2M,
			TransportConfig: tc,
		})
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.templateID = out.ID
	s.meta = meta
	s.mu.Unlock()
	return out, nil
}

// Cancel discards the selection. The session cannot be used afterwards.
func (s *Session) Cancel() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.store.ClearSelection()
}
