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

// Package mqtt shares template change events between consoles over an
// MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/kubeedge/lwm2mconsole/pkg/client/templates"
)

var (
	// TemplateEventTopic carries the change events of one project
	TemplateEventTopic = "$hw/events/template/%s/changed"
	// SubTopics which the console should sub
	SubTopics = []string{
		"$hw/events/template/+/changed",
	}
)

// unknownProject is used in topics for events without a project.
const unknownProject = "_"

// Config configures a Notifier.
type Config struct {
	Server   string
	Username string
	Password string
	QOS      byte
	TLS      TLSConfig
}

// EventHandler is called for every event published by another console.
type EventHandler func(e templates.Event)

// Notifier publishes template changes and delivers the changes made by
// other consoles to its handler.
type Notifier struct {
	config   Config
	clientID string
	handler  EventHandler

	newClient func(*MQTT.ClientOptions) MQTT.Client

	mu     sync.Mutex
	pubCli MQTT.Client
	subCli MQTT.Client
}

var _ templates.Notifier = &Notifier{}

// NewNotifier creates a notifier. handler may be nil for publish-only use.
func NewNotifier(cfg Config, handler EventHandler) *Notifier {
	return &Notifier{
		config:    cfg,
		clientID:  "lwm2mconsole-" + uuid.New().String()[:8],
		handler:   handler,
		newClient: MQTT.NewClient,
	}
}

// ClientID identifies this console in published events.
func (n *Notifier) ClientID() string {
	return n.clientID
}

// TopicFor returns the topic events of projectID are published on.
func TopicFor(projectID string) string {
	if projectID == "" {
		projectID = unknownProject
	}
	return fmt.Sprintf(TemplateEventTopic, strings.ReplaceAll(projectID, "/", "_"))
}

// Start connects the publishing client and, when a handler is set, the
// subscribing client. It blocks until both are connected or ctx is done.
func (n *Notifier) Start(ctx context.Context) error {
	pubID := n.clientID + "-pub"
	pubOpts, err := HubClientInit(n.config.Server, pubID, n.config.Username, n.config.Password, n.config.TLS)
	if err != nil {
		return err
	}
	pubOpts.SetAutoReconnect(true)
	pubOpts.SetConnectionLostHandler(func(_ MQTT.Client, err error) {
		klog.Errorf("onPubConnectionLost with error: %v", err)
	})
	pubCli := n.newClient(pubOpts)
	if err := LoopConnect(ctx, pubID, pubCli); err != nil {
		return fmt.Errorf("connect publisher to %s: %w", n.config.Server, err)
	}
	n.mu.Lock()
	n.pubCli = pubCli
	n.mu.Unlock()

	if n.handler == nil {
		return nil
	}
	subID := n.clientID + "-sub"
	subOpts, err := HubClientInit(n.config.Server, subID, n.config.Username, n.config.Password, n.config.TLS)
	if err != nil {
		return err
	}
	subOpts.SetAutoReconnect(true)
	subOpts.SetOnConnectHandler(n.onSubConnect)
	subOpts.SetConnectionLostHandler(func(_ MQTT.Client, err error) {
		klog.Errorf("onSubConnectionLost with error: %v", err)
	})
	subCli := n.newClient(subOpts)
	if err := LoopConnect(ctx, subID, subCli); err != nil {
		return fmt.Errorf("connect subscriber to %s: %w", n.config.Server, err)
	}
	n.mu.Lock()
	n.subCli = subCli
	n.mu.Unlock()
	return nil
}

func (n *Notifier) onSubConnect(client MQTT.Client) {
	for _, t := range SubTopics {
		token := client.Subscribe(t, n.config.QOS, n.onMessage)
		if rs, err := CheckClientToken(token); !rs {
			klog.Errorf("console subscribe topic: %s, %v", t, err)
			return
		}
		klog.Infof("console subscribe topic to %s", t)
	}
}

func (n *Notifier) onMessage(_ MQTT.Client, message MQTT.Message) {
	var e templates.Event
	if err := json.Unmarshal(message.Payload(), &e); err != nil {
		klog.Warningf("drop malformed template event on topic %s: %v", message.Topic(), err)
		return
	}
	if e.TemplateID == "" {
		klog.Warningf("drop template event without template id on topic %s", message.Topic())
		return
	}
	if e.Source == n.clientID {
		return
	}
	klog.V(4).Infof("received template event %+v from topic %s", e, message.Topic())
	n.handler(e)
}

// Publish sends e to every other console.
func (n *Notifier) Publish(e templates.Event) error {
	n.mu.Lock()
	cli := n.pubCli
	n.mu.Unlock()
	if cli == nil {
		return fmt.Errorf("mqtt notifier is not started")
	}
	if e.Source == "" {
		e.Source = n.clientID
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	topic := TopicFor(e.ProjectID)
	token := cli.Publish(topic, n.config.QOS, false, payload)
	if rs, err := CheckClientToken(token); !rs {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	klog.V(4).Infof("published template event %s %s to %s", e.Type, e.TemplateID, topic)
	return nil
}

// Close disconnects from the broker.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, cli := range []MQTT.Client{n.pubCli, n.subCli} {
		if cli != nil && cli.IsConnected() {
			cli.Disconnect(250)
		}
	}
	n.pubCli = nil
	n.subCli = nil
}
