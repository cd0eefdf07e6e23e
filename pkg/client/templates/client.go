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

// Package templates is the device template CRUD client.
package templates

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"k8s.io/klog/v2"

	"github.com/kubeedge/lwm2mconsole/pkg/apis/templates/v1alpha1"
	"github.com/kubeedge/lwm2mconsole/pkg/apis/templates/v1alpha1/validation"
	"github.com/kubeedge/lwm2mconsole/pkg/client/rest"
	"github.com/kubeedge/lwm2mconsole/pkg/monitor"
)

const (
	// TemplatesPath is the collection endpoint.
	TemplatesPath = "/api/templates"
	// DefaultListLimit is used when ListOptions.Limit is not set.
	DefaultListLimit = 20
)

// Operation names used in logs and metrics.
const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationGet    = "get"
	OperationList   = "list"
)

// ListOptions selects a page of a project's templates.
type ListOptions struct {
	ProjectID string
	Offset    int
	Limit     int
}

// Interface is the template CRUD surface.
type Interface interface {
	CreateTemplate(ctx context.Context, req *v1alpha1.CreateTemplateRequest) (*v1alpha1.Template, error)
	UpdateTemplate(ctx context.Context, id string, req *v1alpha1.UpdateTemplateRequest) (*v1alpha1.Template, error)
	GetTemplateByID(ctx context.Context, id string) (*v1alpha1.Template, error)
	ListTemplates(ctx context.Context, opts ListOptions) (*v1alpha1.TemplateList, error)
}

// Client implements Interface against the backend REST API.
type Client struct {
	rest     *rest.Client
	notifier Notifier
	source   string

	mu    sync.Mutex
	cache *readCache
}

var _ Interface = &Client{}

// Option configures a Client.
type Option func(*Client) error

// WithCache enables the read cache with the given capacity.
func WithCache(capacity int) Option {
	return func(c *Client) error {
		cache, err := newReadCache(capacity)
		if err != nil {
			return err
		}
		c.cache = cache
		return nil
	}
}

// WithNotifier publishes an Event for every successful write.
func WithNotifier(n Notifier) Option {
	return func(c *Client) error {
		c.notifier = n
		return nil
	}
}

// WithSource sets the Source of published events.
func WithSource(source string) Option {
	return func(c *Client) error {
		c.source = source
		return nil
	}
}

// NewClient creates a template client on top of rc.
func NewClient(rc *rest.Client, opts ...Option) (*Client, error) {
	c := &Client{rest: rc}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// CreateTemplate validates req and creates the template.
func (c *Client) CreateTemplate(ctx context.Context, req *v1alpha1.CreateTemplateRequest) (*v1alpha1.Template, error) {
	if errs := validation.ValidateCreateTemplateRequest(req); len(errs) > 0 {
		return nil, &ValidationError{Errs: errs}
	}

	out := &v1alpha1.Template{}
	err := c.rest.Post(ctx, TemplatesPath, req, out)
	observe(OperationCreate, err)
	if err != nil {
		return nil, fmt.Errorf("create template %q: %w", req.Name, err)
	}
	klog.V(2).Infof("created template %s (%s) in project %s", out.ID, out.Name, req.ProjectID)

	projectID := out.ProjectID
	if projectID == "" {
		projectID = req.ProjectID
	}
	c.changed(Event{Type: EventCreated, TemplateID: out.ID, ProjectID: projectID})
	return out, nil
}

// UpdateTemplate validates req and replaces template id.
func (c *Client) UpdateTemplate(ctx context.Context, id string, req *v1alpha1.UpdateTemplateRequest) (*v1alpha1.Template, error) {
	if id == "" {
		return nil, fmt.Errorf("template id is required")
	}
	if errs := validation.ValidateUpdateTemplateRequest(req); len(errs) > 0 {
		return nil, &ValidationError{Errs: errs}
	}

	out := &v1alpha1.Template{}
	err := c.rest.Put(ctx, templatePath(id), req, out)
	observe(OperationUpdate, err)
	if err != nil {
		return nil, fmt.Errorf("update template %s: %w", id, err)
	}
	if out.ID == "" {
		out.ID = id
	}
	klog.V(2).Infof("updated template %s (%s)", id, out.Name)

	c.changed(Event{Type: EventUpdated, TemplateID: id, ProjectID: out.ProjectID})
	return out, nil
}

// GetTemplateByID returns template id.
func (c *Client) GetTemplateByID(ctx context.Context, id string) (*v1alpha1.Template, error) {
	if id == "" {
		return nil, fmt.Errorf("template id is required")
	}
	t, gen, ok := c.cachedTemplate(id)
	if ok {
		klog.V(4).Infof("template %s served from cache", id)
		return t, nil
	}

	out := &v1alpha1.Template{}
	err := c.rest.Get(ctx, templatePath(id), nil, out)
	observe(OperationGet, err)
	if err != nil {
		return nil, fmt.Errorf("get template %s: %w", id, err)
	}
	if out.ID == "" {
		out.ID = id
	}

	c.mu.Lock()
	if c.cache != nil && !c.cache.addTemplate(gen, out) {
		klog.V(4).Infof("template %s changed during the read, not caching it", id)
	}
	c.mu.Unlock()
	return out, nil
}

// ListTemplates returns one page of the templates of opts.ProjectID.
func (c *Client) ListTemplates(ctx context.Context, opts ListOptions) (*v1alpha1.TemplateList, error) {
	if opts.ProjectID == "" {
		return nil, fmt.Errorf("project id is required")
	}
	if opts.Offset < 0 {
		return nil, fmt.Errorf("offset must not be negative")
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}
	l, gen, ok := c.cachedList(opts)
	if ok {
		klog.V(4).Infof("template list %+v served from cache", opts)
		return l, nil
	}

	query := url.Values{}
	query.Set("project_id", opts.ProjectID)
	query.Set("offset", strconv.Itoa(opts.Offset))
	query.Set("limit", strconv.Itoa(opts.Limit))

	out := &v1alpha1.TemplateList{}
	err := c.rest.Get(ctx, TemplatesPath, query, out)
	observe(OperationList, err)
	if err != nil {
		return nil, fmt.Errorf("list templates of project %s: %w", opts.ProjectID, err)
	}
	if out.Templates == nil {
		out.Templates = []v1alpha1.Template{}
	}

	c.mu.Lock()
	if c.cache != nil && !c.cache.addList(gen, opts, out) {
		klog.V(4).Infof("templates changed during list %+v, not caching it", opts)
	}
	c.mu.Unlock()
	return out, nil
}

// Shared reports whether c publishes its changes to other consoles.
func (c *Client) Shared() bool {
	return c.notifier != nil
}

// Invalidate drops every cached list and the cached detail of id. It is
// also called for changes made by other consoles.
func (c *Client) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache == nil {
		return
	}
	c.cache.invalidate(id)
	monitor.TemplateCacheInvalidations.Inc()
}

// HandleEvent applies a change published by another console.
func (c *Client) HandleEvent(e Event) {
	if e.Source != "" && e.Source == c.source {
		return
	}
	klog.V(4).Infof("template %s %s remotely, invalidating cache", e.TemplateID, e.Type)
	c.Invalidate(e.TemplateID)
}

func (c *Client) changed(e Event) {
	c.Invalidate(e.TemplateID)
	if c.notifier == nil {
		return
	}
	e.Source = c.source
	if err := c.notifier.Publish(e); err != nil {
		klog.Warningf("failed to publish template %s change: %v", e.TemplateID, err)
	}
}

// cachedTemplate also returns the cache generation a miss must be filled at.
func (c *Client) cachedTemplate(id string) (*v1alpha1.Template, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache == nil {
		return nil, 0, false
	}
	t, ok := c.cache.getTemplate(id)
	return t, c.cache.generation, ok
}

func (c *Client) cachedList(opts ListOptions) (*v1alpha1.TemplateList, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache == nil {
		return nil, 0, false
	}
	l, ok := c.cache.getList(opts)
	return l, c.cache.generation, ok
}

func templatePath(id string) string {
	return TemplatesPath + "/" + url.PathEscape(id)
}

func observe(operation string, err error) {
	monitor.TemplateRequests.WithLabelValues(operation, monitor.Result(err)).Inc()
}
