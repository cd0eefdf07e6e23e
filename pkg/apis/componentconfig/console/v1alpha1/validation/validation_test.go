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

package validation

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/kubeedge/lwm2mconsole/pkg/apis/componentconfig/console/v1alpha1"
)

func TestValidateConsoleConfiguration(t *testing.T) {
	config := v1alpha1.NewDefaultConsoleConfig()
	config.Server.Address = "https://iot.example.com"

	if errList := ValidateConsoleConfiguration(config); len(errList) > 0 {
		t.Errorf("console configuration is not correct: %v", errList)
	}

	config.Server.Address = ""
	if errList := ValidateConsoleConfiguration(config); len(errList) != 1 {
		t.Errorf("expected one error, got %v", errList)
	}
}

func TestValidateServer(t *testing.T) {
	dir := t.TempDir()
	ca := filepath.Join(dir, "ca.crt")
	if err := os.WriteFile(ca, []byte("ca"), 0600); err != nil {
		t.Fatalf("write ca: %v", err)
	}
	missing := filepath.Join(dir, "missing.crt")

	cases := []struct {
		name     string
		input    *v1alpha1.Server
		expected field.ErrorList
	}{
		{
			name:     "case1 nil",
			input:    nil,
			expected: field.ErrorList{field.Required(field.NewPath("server"), "server config is required")},
		},
		{
			name:     "case2 valid",
			input:    &v1alpha1.Server{Address: "http://127.0.0.1:8080", CAFile: ca},
			expected: field.ErrorList{},
		},
		{
			name:     "case3 bad scheme",
			input:    &v1alpha1.Server{Address: "ftp://iot.example.com"},
			expected: field.ErrorList{field.Invalid(field.NewPath("server", "address"), "ftp://iot.example.com", "must be an http or https URL")},
		},
		{
			name:     "case4 ca not exist",
			input:    &v1alpha1.Server{Address: "https://iot.example.com", CAFile: missing},
			expected: field.ErrorList{field.Invalid(field.NewPath("server", "caFile"), missing, "caFile not exist")},
		},
		{
			name:  "case5 negative values",
			input: &v1alpha1.Server{Address: "https://iot.example.com", TimeoutSeconds: -1, Burst: -1},
			expected: field.ErrorList{
				field.Invalid(field.NewPath("server", "timeoutSeconds"), int32(-1), "must not be negative"),
				field.Invalid(field.NewPath("server", "burst"), int32(-1), "must not be negative"),
			},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if result := ValidateServer(c.input); !reflect.DeepEqual(result, c.expected) {
				t.Errorf("%v: expected %v, but got %v", c.name, c.expected, result)
			}
		})
	}
}

func TestValidateObjectCache(t *testing.T) {
	cases := []struct {
		name     string
		input    *v1alpha1.ObjectCache
		expected int
	}{
		{name: "case1 not enabled", input: &v1alpha1.ObjectCache{Enable: false}},
		{name: "case2 valid", input: &v1alpha1.ObjectCache{Enable: true, DataSource: "/tmp/objects.db"}},
		{name: "case3 no data source", input: &v1alpha1.ObjectCache{Enable: true}, expected: 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if result := ValidateObjectCache(c.input); len(result) != c.expected {
				t.Errorf("%v: expected %d errors, but got %v", c.name, c.expected, result)
			}
		})
	}
}

func TestValidateTemplateCache(t *testing.T) {
	if result := ValidateTemplateCache(&v1alpha1.TemplateCache{Enable: true, Capacity: -1}); len(result) != 1 {
		t.Errorf("expected 1 error, got %v", result)
	}
	if result := ValidateTemplateCache(&v1alpha1.TemplateCache{Enable: false, Capacity: -1}); len(result) != 0 {
		t.Errorf("expected no error, got %v", result)
	}
}

func TestValidateEventBus(t *testing.T) {
	cases := []struct {
		name     string
		input    *v1alpha1.EventBus
		expected int
	}{
		{name: "case1 not enabled", input: &v1alpha1.EventBus{Enable: false, QOS: 9}},
		{name: "case2 valid", input: &v1alpha1.EventBus{Enable: true, Server: "tcp://127.0.0.1:1883", QOS: 1}},
		{name: "case3 no server", input: &v1alpha1.EventBus{Enable: true}, expected: 1},
		{name: "case4 bad scheme", input: &v1alpha1.EventBus{Enable: true, Server: "http://127.0.0.1:1883"}, expected: 1},
		{name: "case5 bad qos", input: &v1alpha1.EventBus{Enable: true, Server: "tcp://127.0.0.1:1883", QOS: 3}, expected: 1},
		{name: "case6 cert without key", input: &v1alpha1.EventBus{Enable: true, Server: "ssl://127.0.0.1:8883", TLSCertFile: "/does/not/exist"}, expected: 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if result := ValidateEventBus(c.input); len(result) != c.expected {
				t.Errorf("%v: expected %d errors, but got %v", c.name, c.expected, result)
			}
		})
	}
}

func TestValidateMonitor(t *testing.T) {
	if result := ValidateMonitor(&v1alpha1.Monitor{Enable: true, BindAddress: "127.0.0.1:9091"}); len(result) != 0 {
		t.Errorf("expected no error, got %v", result)
	}
	if result := ValidateMonitor(&v1alpha1.Monitor{Enable: true, BindAddress: "9091"}); len(result) != 1 {
		t.Errorf("expected 1 error, got %v", result)
	}
}

func TestValidateLogging(t *testing.T) {
	cases := []struct {
		name    string
		input   *v1alpha1.Logging
		wantErr int
	}{
		{name: "case1 nil", input: nil},
		{name: "case2 stderr", input: &v1alpha1.Logging{LogToStderr: true}},
		{name: "case3 log file", input: &v1alpha1.Logging{LogFile: "/tmp/lwm2mctl.log"}},
		{name: "case4 log dir", input: &v1alpha1.Logging{LogDir: "/tmp"}},
		{name: "case5 nowhere to write", input: &v1alpha1.Logging{}, wantErr: 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if result := ValidateLogging(c.input); len(result) != c.wantErr {
				t.Errorf("%s: expected %d errors, actual %v", c.name, c.wantErr, result)
			}
		})
	}
}
