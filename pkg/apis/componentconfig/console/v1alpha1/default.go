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

import (
	"os"
	"path"
	"path/filepath"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	GroupName  = "console.config.kubeedge.io"
	APIVersion = "v1alpha1"
	Kind       = "ConsoleConfig"

	DefaultTimeoutSeconds        = 30
	DefaultQPS                   = 20
	DefaultBurst                 = 40
	DefaultTemplateCacheCapacity = 128
	DefaultMonitorBindAddress    = "127.0.0.1:9091"
	DefaultEventBusServer        = "tcp://127.0.0.1:1883"
	DefaultLogFileMaxSize        = 1800
)

// DefaultConfigFile returns the config file path used when --config is not set
func DefaultConfigFile() string {
	return filepath.Join(configDir(), "console.yaml")
}

// DefaultDataSource returns the default object definition database path
func DefaultDataSource() string {
	return filepath.Join(configDir(), "objects.db")
}

func configDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "lwm2mconsole")
	}
	return "/var/lib/lwm2mconsole"
}

// NewDefaultConsoleConfig returns a full ConsoleConfig object
func NewDefaultConsoleConfig() *ConsoleConfig {
	return &ConsoleConfig{
		TypeMeta: metav1.TypeMeta{
			Kind:       Kind,
			APIVersion: path.Join(GroupName, APIVersion),
		},
		Server: &Server{
			TimeoutSeconds: DefaultTimeoutSeconds,
			QPS:            DefaultQPS,
			Burst:          DefaultBurst,
		},
		ObjectCache: &ObjectCache{
			Enable:     true,
			DataSource: DefaultDataSource(),
		},
		TemplateCache: &TemplateCache{
			Enable:   true,
			Capacity: DefaultTemplateCacheCapacity,
		},
		EventBus: &EventBus{
			Enable: false,
			Server: DefaultEventBusServer,
			QOS:    1,
		},
		Monitor: &Monitor{
			Enable:      false,
			BindAddress: DefaultMonitorBindAddress,
		},
		Logging: &Logging{
			LogFileMaxSize: DefaultLogFileMaxSize,
			LogToStderr:    true,
		},
	}
}
