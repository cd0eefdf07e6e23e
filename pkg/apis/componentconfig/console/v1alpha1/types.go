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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ConsoleConfig indicates the config of the console which get from the console config file
type ConsoleConfig struct {
	metav1.TypeMeta `json:",inline"`
	// Server indicates the platform backend the console talks to
	// +Required
	Server *Server `json:"server,omitempty"`
	// ProjectID is used when a command does not name a project
	// default ""
	ProjectID string `json:"projectID,omitempty"`
	// ObjectCache indicates the persistent object definition cache config
	ObjectCache *ObjectCache `json:"objectCache,omitempty"`
	// TemplateCache indicates the template read cache config
	TemplateCache *TemplateCache `json:"templateCache,omitempty"`
	// EventBus indicates the MQTT broker used to share template changes
	EventBus *EventBus `json:"eventBus,omitempty"`
	// Monitor indicates the metrics server config
	Monitor *Monitor `json:"monitor,omitempty"`
	// Logging indicates where logs are written, command line flags win
	Logging *Logging `json:"logging,omitempty"`
}

// Server indicates the configuration for interacting with the backend
type Server struct {
	// Address is the backend base URL, such as https://iot.example.com
	// +Required
	Address string `json:"address"`
	// Token is sent as a bearer token
	// default ""
	Token string `json:"token,omitempty"`
	// CAFile trusts an extra CA bundle for Address
	// default ""
	CAFile string `json:"caFile,omitempty"`
	// InsecureSkipVerify disables server certificate verification
	// default false
	InsecureSkipVerify bool `json:"insecureSkipVerify,omitempty"`
	// TimeoutSeconds bounds a single request
	// default 30
	TimeoutSeconds int32 `json:"timeoutSeconds,omitempty"`
	// QPS to use while talking with the backend, negative disables throttling
	// default 20
	QPS float32 `json:"qps,omitempty"`
	// Burst to use while talking with the backend
	// default 40
	Burst int32 `json:"burst,omitempty"`
}

// ObjectCache indicates the config of the object definition store
type ObjectCache struct {
	// Enable indicates whether definitions are kept in a local sqlite database
	// default true
	Enable bool `json:"enable"`
	// DataSource indicates the path of the sqlite database
	// default "/var/lib/lwm2mconsole/objects.db"
	DataSource string `json:"dataSource,omitempty"`
}

// TemplateCache indicates the config of the template read cache
type TemplateCache struct {
	// Enable indicates whether template reads are cached
	// default true
	Enable bool `json:"enable"`
	// Capacity is the number of cached responses
	// default 128
	Capacity int32 `json:"capacity,omitempty"`
}

// EventBus indicates the config of the MQTT change notifier
type EventBus struct {
	// Enable indicates whether template changes are shared with other consoles
	// default false
	Enable bool `json:"enable"`
	// Server indicates the broker address, such as tcp://127.0.0.1:1883
	Server string `json:"server,omitempty"`
	// Username and Password authenticate against the broker
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	// QOS of published and subscribed messages
	// default 1
	QOS uint8 `json:"qos,omitempty"`
	// TLSCAFile, TLSCertFile and TLSPrivateKeyFile enable TLS when set
	TLSCAFile         string `json:"tlsCAFile,omitempty"`
	TLSCertFile       string `json:"tlsCertFile,omitempty"`
	TLSPrivateKeyFile string `json:"tlsPrivateKeyFile,omitempty"`
}

// Monitor indicates the config of the metrics server
type Monitor struct {
	// Enable indicates whether /metrics is served
	// default false
	Enable bool `json:"enable"`
	// BindAddress of the metrics server
	// default "127.0.0.1:9091"
	BindAddress string `json:"bindAddress,omitempty"`
	// EnableProfiling adds the pprof handlers
	// default false
	EnableProfiling bool `json:"enableProfiling,omitempty"`
}

// Logging indicates the klog output config
type Logging struct {
	// LogDir receives the log files when LogToStderr is false
	LogDir string `json:"logDir,omitempty"`
	// LogFile takes precedence over LogDir
	LogFile string `json:"logFile,omitempty"`
	// LogFileMaxSize in megabytes, 0 means no limit
	// default 1800
	LogFileMaxSize uint64 `json:"logFileMaxSize,omitempty"`
	// LogToStderr writes logs to standard error instead of files
	// default true
	LogToStderr bool `json:"logToStderr"`
	// AlsoLogToStderr writes logs to standard error as well as files
	// default false
	AlsoLogToStderr bool `json:"alsoLogToStderr,omitempty"`
}
