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

package cmd

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/klog/v2"

	"github.com/kubeedge/lwm2mconsole/cmd/lwm2mctl/app/options"
	"github.com/kubeedge/lwm2mconsole/pkg/apis/componentconfig/console/v1alpha1"
	"github.com/kubeedge/lwm2mconsole/pkg/client/rest"
	"github.com/kubeedge/lwm2mconsole/pkg/client/templates"
	"github.com/kubeedge/lwm2mconsole/pkg/eventbus/mqtt"
	"github.com/kubeedge/lwm2mconsole/pkg/lwm2m/objectdef"
	"github.com/kubeedge/lwm2mconsole/pkg/monitor"
	"github.com/kubeedge/lwm2mconsole/pkg/session"
)

var eventBusStartTimeout = 15 * time.Second

// runtime holds the clients built from the console configuration for one
// command invocation.
type runtime struct {
	config    *v1alpha1.ConsoleConfig
	fetcher   *objectdef.HTTPFetcher
	templates *templates.Client
	objects   *objectdef.SQLiteStore
	notifier  *mqtt.Notifier
	stop      context.CancelFunc

	// client is rt.templates for the event handler, which may run before
	// newRuntime returns
	client atomic.Pointer[templates.Client]
}

// newRuntime validates opts and builds the clients. onEvent, when set, also
// receives the template events of other consoles.
func newRuntime(ctx context.Context, opts *options.ConsoleOptions, onEvent mqtt.EventHandler) (*runtime, error) {
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, utilerrors.NewAggregate(errs)
	}
	config, err := opts.Config()
	if err != nil {
		return nil, err
	}

	rc, err := rest.NewClient(rest.Config{
		Server:             config.Server.Address,
		Token:              config.Server.Token,
		CAFile:             config.Server.CAFile,
		InsecureSkipVerify: config.Server.InsecureSkipVerify,
		Timeout:            time.Duration(config.Server.TimeoutSeconds) * time.Second,
		QPS:                config.Server.QPS,
		Burst:              int(config.Server.Burst),
	})
	if err != nil {
		return nil, err
	}

	rt := &runtime{config: config, stop: func() {}}
	ok := false
	defer func() {
		if !ok {
			rt.Close()
		}
	}()

	var fetcherOpts []objectdef.Option
	if config.ObjectCache != nil && config.ObjectCache.Enable {
		rt.objects, err = objectdef.OpenSQLiteStore(config.ObjectCache.DataSource)
		if err != nil {
			return nil, fmt.Errorf("open object cache: %w", err)
		}
		fetcherOpts = append(fetcherOpts, objectdef.WithStore(rt.objects))
	}
	rt.fetcher = objectdef.NewHTTPFetcher(rc, fetcherOpts...)

	var templateOpts []templates.Option
	if config.TemplateCache != nil && config.TemplateCache.Enable {
		templateOpts = append(templateOpts, templates.WithCache(int(config.TemplateCache.Capacity)))
	}
	if config.EventBus != nil && config.EventBus.Enable {
		if err := rt.startNotifier(ctx, config.EventBus, onEvent); err != nil {
			if onEvent != nil {
				return nil, err
			}
			klog.Warningf("event bus unavailable, template changes will not be shared: %v", err)
		}
	}
	if rt.notifier != nil {
		templateOpts = append(templateOpts, templates.WithNotifier(rt.notifier), templates.WithSource(rt.notifier.ClientID()))
	}
	rt.templates, err = templates.NewClient(rc, templateOpts...)
	if err != nil {
		return nil, err
	}
	rt.client.Store(rt.templates)
	klog.V(2).Infof("template changes shared with other consoles: %v", rt.templates.Shared())

	if config.Monitor != nil && config.Monitor.Enable {
		monitorCtx, cancel := context.WithCancel(context.Background())
		rt.stop = cancel
		go func() {
			if err := monitor.ServeMonitor(monitorCtx, config.Monitor.BindAddress, config.Monitor.EnableProfiling); err != nil {
				klog.Errorf("monitor server stopped: %v", err)
			}
		}()
	}

	ok = true
	return rt, nil
}

// startNotifier connects to the broker. rt.notifier stays nil unless it
// started.
func (rt *runtime) startNotifier(ctx context.Context, eb *v1alpha1.EventBus, onEvent mqtt.EventHandler) error {
	n := mqtt.NewNotifier(mqtt.Config{
		Server:   eb.Server,
		Username: eb.Username,
		Password: eb.Password,
		QOS:      eb.QOS,
		TLS: mqtt.TLSConfig{
			Enable:   eb.TLSCAFile != "",
			CAFile:   eb.TLSCAFile,
			CertFile: eb.TLSCertFile,
			KeyFile:  eb.TLSPrivateKeyFile,
		},
	}, func(e templates.Event) {
		if c := rt.client.Load(); c != nil {
			c.HandleEvent(e)
		}
		if onEvent != nil {
			onEvent(e)
		}
	})

	startCtx, cancel := context.WithTimeout(ctx, eventBusStartTimeout)
	defer cancel()
	if err := n.Start(startCtx); err != nil {
		n.Close()
		return err
	}
	rt.notifier = n
	return nil
}

func (rt *runtime) deps() session.Deps {
	return session.Deps{
		Templates: rt.templates,
		Fetcher:   rt.fetcher,
	}
}

func (rt *runtime) projectID() (string, error) {
	if rt.config.ProjectID != "" {
		return rt.config.ProjectID, nil
	}
	return "", fmt.Errorf("project id is required, set --project-id or projectID in the config file")
}

// Close releases every client of rt.
func (rt *runtime) Close() {
	rt.stop()
	if rt.notifier != nil {
		rt.notifier.Close()
	}
	if rt.objects != nil {
		if err := rt.objects.Close(); err != nil {
			klog.Warningf("close object cache: %v", err)
		}
	}
}
