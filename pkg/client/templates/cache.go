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

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"github.com/kubeedge/lwm2mconsole/pkg/apis/templates/v1alpha1"
)

// DefaultCacheCapacity is the default number of cached responses.
const DefaultCacheCapacity = 128

const (
	detailPrefix = "detail/"
	listPrefix   = "list/"
)

// readCache is an lru cache of template reads. Values are copied on the
// way in and out. generation counts invalidations; a read may only fill
// the cache when no invalidation happened since it started.
type readCache struct {
	lru        *lru.Cache
	generation uint64
}

func newReadCache(capacity int) (*readCache, error) {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	c, err := lru.New(capacity)
	if err != nil {
		return nil, err
	}
	return &readCache{lru: c}, nil
}

func detailKey(id string) string {
	return detailPrefix + id
}

func listKey(opts ListOptions) string {
	return fmt.Sprintf("%s%s/%d/%d", listPrefix, opts.ProjectID, opts.Offset, opts.Limit)
}

func (c *readCache) getTemplate(id string) (*v1alpha1.Template, bool) {
	v, ok := c.lru.Get(detailKey(id))
	if !ok {
		return nil, false
	}
	return copyTemplate(v.(*v1alpha1.Template)), true
}

// addTemplate caches t if gen is still the current generation.
func (c *readCache) addTemplate(gen uint64, t *v1alpha1.Template) bool {
	if gen != c.generation {
		return false
	}
	c.lru.Add(detailKey(t.ID), copyTemplate(t))
	return true
}

func (c *readCache) getList(opts ListOptions) (*v1alpha1.TemplateList, bool) {
	v, ok := c.lru.Get(listKey(opts))
	if !ok {
		return nil, false
	}
	return copyList(v.(*v1alpha1.TemplateList)), true
}

// addList caches l if gen is still the current generation.
func (c *readCache) addList(gen uint64, opts ListOptions, l *v1alpha1.TemplateList) bool {
	if gen != c.generation {
		return false
	}
	c.lru.Add(listKey(opts), copyList(l))
	return true
}

// invalidate drops every list page and the detail of id, if set.
func (c *readCache) invalidate(id string) {
	c.generation++
	for _, k := range c.lru.Keys() {
		if key, ok := k.(string); ok && strings.HasPrefix(key, listPrefix) {
			c.lru.Remove(key)
		}
	}
	if id != "" {
		c.lru.Remove(detailKey(id))
	}
}

func (c *readCache) len() int {
	return c.lru.Len()
}

func copyTemplate(t *v1alpha1.Template) *v1alpha1.Template {
	out := *t
	if t.TransportConfig != nil {
		out.TransportConfig = append([]byte(nil), t.TransportConfig...)
	}
	return &out
}

func copyList(l *v1alpha1.TemplateList) *v1alpha1.TemplateList {
	out := *l
	out.Templates = make([]v1alpha1.Template, len(l.Templates))
	for i := range l.Templates {
		out.Templates[i] = *copyTemplate(&l.Templates[i])
	}
	return &out
}
