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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"sigs.k8s.io/yaml"
)

func TestConsoleConfig_Parse(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	assert.NoError(t, os.WriteFile(bad, []byte("aaa"), 0600))
	unknown := filepath.Join(dir, "unknown.yaml")
	assert.NoError(t, os.WriteFile(unknown, []byte("server:\n  adress: http://x\n"), 0600))
	partial := filepath.Join(dir, "partial.yaml")
	assert.NoError(t, os.WriteFile(partial, []byte("server:\n  address: https://iot.example.com\n  token: abc\nprojectID: p1\n"), 0600))

	tests := []struct {
		name     string
		filename string
		wantErr  bool
	}{
		{name: "base", filename: filepath.Join(dir, "notexist"), wantErr: true},
		{name: "file exist but cannot unmarshal content", filename: bad, wantErr: true},
		{name: "unknown field", filename: unknown, wantErr: true},
		{name: "file exist and can unmarshal properly", filename: partial},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewDefaultConsoleConfig()
			if err := c.Parse(tt.filename); (err != nil) != tt.wantErr {
				t.Errorf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseKeepsDefaults(t *testing.T) {
	f := filepath.Join(t.TempDir(), "console.yaml")
	assert.NoError(t, os.WriteFile(f, []byte("server:\n  address: https://iot.example.com\n"), 0600))

	c := NewDefaultConsoleConfig()
	assert.NoError(t, c.Parse(f))
	assert.Equal(t, "https://iot.example.com", c.Server.Address)
	assert.Equal(t, int32(DefaultTimeoutSeconds), c.Server.TimeoutSeconds)
	assert.Equal(t, int32(DefaultTemplateCacheCapacity), c.TemplateCache.Capacity)
	assert.True(t, c.ObjectCache.Enable)
}

func TestDefaultConfigRoundTrip(t *testing.T) {
	c := NewDefaultConsoleConfig()
	out, err := yaml.Marshal(c)
	assert.NoError(t, err)

	f := filepath.Join(t.TempDir(), "console.yaml")
	assert.NoError(t, os.WriteFile(f, out, 0600))
	parsed := &ConsoleConfig{}
	assert.NoError(t, parsed.Parse(f))
	assert.Equal(t, c, parsed)
}
