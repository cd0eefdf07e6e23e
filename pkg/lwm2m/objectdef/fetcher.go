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
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"k8s.io/klog/v2"

	"github.com/kubeedge/lwm2mconsole/pkg/client/rest"
	"github.com/kubeedge/lwm2mconsole/pkg/monitor"
)

// DocumentPath is where the backend publishes object documents.
const DocumentPath = "/file/publishjson/%s.json"

// Fetcher maps a catalog id to its object definition.
type Fetcher interface {
	Fetch(ctx context.Context, catalogID string) (*ObjectDefinition, error)
}

// Store is a persistent tier consulted before the network.
type Store interface {
	Get(catalogID string) (*ObjectDefinition, bool, error)
	Put(catalogID string, def *ObjectDefinition) error
}

// HTTPFetcher fetches definitions from the backend. Each id is requested
// at most once at a time and successful results are kept for the life of
// the fetcher. Callers always receive their own copy.
type HTTPFetcher struct {
	client *rest.Client
	store  Store

	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]*ObjectDefinition
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithStore adds a persistent tier.
func WithStore(s Store) Option {
	return func(f *HTTPFetcher) {
		f.store = s
	}
}

// NewHTTPFetcher creates a fetcher backed by client.
func NewHTTPFetcher(client *rest.Client, opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client: client,
		cache:  make(map[string]*ObjectDefinition),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the definition for catalogID. Concurrent calls for the same
// id share one request. A canceled ctx only abandons the wait; the shared
// request keeps running for the other callers.
func (f *HTTPFetcher) Fetch(ctx context.Context, catalogID string) (*ObjectDefinition, error) {
	if def, ok := f.cached(catalogID); ok {
		monitor.ObjectDefCacheHits.WithLabelValues("memory").Inc()
		return def.DeepCopy(), nil
	}

	ch := f.group.DoChan(catalogID, func() (interface{}, error) {
		return f.load(catalogID)
	})
	select {
	case <-ctx.Done():
		return nil, &FetchError{CatalogID: catalogID, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			klog.V(4).Infof("object definition %s fetch shared with a concurrent caller", catalogID)
		}
		return res.Val.(*ObjectDefinition).DeepCopy(), nil
	}
}

// Cached reports whether catalogID is already in memory.
func (f *HTTPFetcher) Cached(catalogID string) bool {
	_, ok := f.cached(catalogID)
	return ok
}

func (f *HTTPFetcher) cached(catalogID string) (*ObjectDefinition, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	def, ok := f.cache[catalogID]
	return def, ok
}

func (f *HTTPFetcher) remember(catalogID string, def *ObjectDefinition) *ObjectDefinition {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.cache[catalogID]; ok {
		return existing
	}
	f.cache[catalogID] = def
	return def
}

// load runs once per id at a time under the singleflight group.
func (f *HTTPFetcher) load(catalogID string) (*ObjectDefinition, error) {
	if def, ok := f.cached(catalogID); ok {
		return def, nil
	}

	if f.store != nil {
		def, ok, err := f.store.Get(catalogID)
		if err != nil {
			klog.Warningf("failed to read object definition %s from local store: %v", catalogID, err)
		} else if ok {
			monitor.ObjectDefCacheHits.WithLabelValues("store").Inc()
			return f.remember(catalogID, def), nil
		}
	}

	def, err := f.download(catalogID)
	monitor.ObjectDefFetches.WithLabelValues(monitor.Result(err)).Inc()
	if err != nil {
		klog.Errorf("failed to fetch object definition %s: %v", catalogID, err)
		return nil, err
	}
	def = f.remember(catalogID, def)

	if f.store != nil {
		if err := f.store.Put(catalogID, def); err != nil {
			klog.Warningf("failed to save object definition %s to local store: %v", catalogID, err)
		}
	}
	return def, nil
}

func (f *HTTPFetcher) download(catalogID string) (*ObjectDefinition, error) {
	// shared by every waiting caller
	ctx, cancel := context.WithTimeout(context.Background(), f.client.Timeout()+5*time.Second)
	defer cancel()

	var raw json.RawMessage
	if err := f.client.Get(ctx, fmt.Sprintf(DocumentPath, catalogID), nil, &raw); err != nil {
		return nil, &FetchError{CatalogID: catalogID, StatusCode: rest.StatusCode(err), Err: err}
	}
	def, err := Decode(raw)
	if err != nil {
		return nil, &FetchError{CatalogID: catalogID, Err: err}
	}
	if def.ObjectID != catalogID {
		klog.Warningf("object document for %s declares object id %s, using %s", catalogID, def.ObjectID, catalogID)
		def.ObjectID = catalogID
	}
	klog.V(4).Infof("fetched object definition %s (%s) with %d resources", catalogID, def.ObjectName, len(def.Resources))
	return def, nil
}
