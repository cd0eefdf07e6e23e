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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/kubeedge/lwm2mconsole/cmd/lwm2mctl/app/options"
	"github.com/kubeedge/lwm2mconsole/pkg/apis/templates/v1alpha1"
	"github.com/kubeedge/lwm2mconsole/pkg/client/templates"
	"github.com/kubeedge/lwm2mconsole/pkg/session"
)

const temperatureDocument = `{"LWM2M": {"Object": {"Name": "Temperature", "ObjectID": "3303", "Resources": {"Item": [
  {"ID": "5700", "Name": "Sensor Value", "Operations": "R", "MultipleInstances": "Single", "Type": "Float"},
  {"ID": "5701", "Name": "Sensor Units", "Operations": "R", "MultipleInstances": "Single", "Type": "String"},
  {"ID": "5605", "Name": "Reset Min and Max Measured Values", "Operations": "E", "MultipleInstances": "Single", "Type": ""}
]}}}}`

// backend serves object documents and an in-memory template API.
type backend struct {
	*httptest.Server

	mu        sync.Mutex
	templates map[string]*v1alpha1.Template
	writes    int
}

func newBackend(t *testing.T) *backend {
	b := &backend{templates: map[string]*v1alpha1.Template{}}
	router := mux.NewRouter()
	router.HandleFunc("/file/publishjson/{id:[0-9]+}.json", func(w http.ResponseWriter, r *http.Request) {
		if mux.Vars(r)["id"] != "3303" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, temperatureDocument)
	})
	router.HandleFunc(templates.TemplatesPath, b.create).Methods(http.MethodPost)
	router.HandleFunc(templates.TemplatesPath, b.list).Methods(http.MethodGet)
	router.HandleFunc(templates.TemplatesPath+"/{id}", b.get).Methods(http.MethodGet)
	router.HandleFunc(templates.TemplatesPath+"/{id}", b.update).Methods(http.MethodPut)
	b.Server = httptest.NewServer(router)
	t.Cleanup(b.Close)
	return b
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *backend) create(w http.ResponseWriter, r *http.Request) {
	var req v1alpha1.CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	tc, _ := json.Marshal(req.TransportConfig)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes++
	tpl := &v1alpha1.Template{
		ID:              strconv.Itoa(len(b.templates) + 1),
		Name:            req.Name,
		Description:     req.Description,
		ProjectID:       req.ProjectID,
		DeviceType:      req.DeviceType,
		TransportType:   req.TransportType,
		TransportConfig: tc,
	}
	b.templates[tpl.ID] = tpl
	writeJSON(w, http.StatusCreated, tpl)
}

func (b *backend) update(w http.ResponseWriter, r *http.Request) {
	var req v1alpha1.UpdateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	tc, _ := json.Marshal(req.TransportConfig)

	b.mu.Lock()
	defer b.mu.Unlock()
	tpl, ok := b.templates[mux.Vars(r)["id"]]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "template not found"})
		return
	}
	b.writes++
	tpl.Name = req.Name
	tpl.Description = req.Description
	tpl.DeviceType = req.DeviceType
	tpl.TransportConfig = tc
	writeJSON(w, http.StatusOK, tpl)
}

func (b *backend) get(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tpl, ok := b.templates[mux.Vars(r)["id"]]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "template not found"})
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (b *backend) list(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := v1alpha1.TemplateList{Templates: []v1alpha1.Template{}, Limit: templates.DefaultListLimit}
	for i := 1; i <= len(b.templates); i++ {
		tpl := b.templates[strconv.Itoa(i)]
		if tpl.ProjectID == r.URL.Query().Get("project_id") {
			out.Templates = append(out.Templates, *tpl)
		}
	}
	out.Total = len(out.Templates)
	writeJSON(w, http.StatusOK, out)
}

func (b *backend) template(t *testing.T, id string) *v1alpha1.TemplateLwM2M {
	b.mu.Lock()
	defer b.mu.Unlock()
	tpl, ok := b.templates[id]
	if !ok {
		t.Fatalf("template %s not found", id)
	}
	lw, err := tpl.DecodeLwM2M()
	if err != nil {
		t.Fatalf("decode template %s: %v", id, err)
	}
	return lw
}

func writeConfig(t *testing.T, server string) string {
	f := filepath.Join(t.TempDir(), "console.yaml")
	config := fmt.Sprintf(`server:
  address: %s
  token: secret
  qps: -1
projectID: p1
objectCache:
  enable: false
templateCache:
  enable: true
  capacity: 16
`, server)
	if err := os.WriteFile(f, []byte(config), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return f
}

func run(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	cmd := NewLwM2MCtlCommand(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	assert := assert.New(t)

	out, err := run("version", "-o", "json")
	assert.NoError(err)
	assert.Contains(out, `"gitVersion"`)

	_, err = run("version", "-o", "xml")
	assert.EqualError(err, "invalid output format: xml")
}

func TestConfig(t *testing.T) {
	assert := assert.New(t)
	b := newBackend(t)

	out, err := run("config", "default")
	assert.NoError(err)
	assert.Contains(out, "kind: ConsoleConfig")
	assert.Contains(out, "objectCache:")

	out, err = run("--config", writeConfig(t, b.URL), "config", "view")
	assert.NoError(err)
	assert.Contains(out, "address: "+b.URL)
	assert.Contains(out, "token: "+redacted)
	assert.NotContains(out, "secret")

	_, err = run("--config", "/non/existent/console.yaml", "config", "view")
	assert.Error(err)
}

func TestCatalogList(t *testing.T) {
	assert := assert.New(t)

	out, err := run("catalog", "list", "--search", "temperature")
	assert.NoError(err)
	assert.Contains(out, "3303")
	assert.Contains(out, "Temperature")
	assert.NotContains(out, "Humidity")

	out, err = run("catalog", "list", "--search", "3304", "-o", "json")
	assert.NoError(err)
	assert.Contains(out, `"name": "Humidity"`)
}

func TestObjectGet(t *testing.T) {
	assert := assert.New(t)
	b := newBackend(t)
	config := writeConfig(t, b.URL)

	out, err := run("--config", config, "object", "get", "3303")
	assert.NoError(err)
	assert.Contains(out, "3303 Temperature")
	assert.Contains(out, "/3303/0/5700")
	assert.Contains(out, "/3303/0/5605")

	out, err = run("--config", config, "object", "get", "3303", "-o", "json")
	assert.NoError(err)
	assert.Contains(out, `"objectName": "Temperature"`)

	_, err = run("--config", config, "object", "get", "9999")
	assert.Error(err)

	_, err = run("--config", config, "object", "cache")
	assert.EqualError(err, "object cache is disabled")
}

func TestTemplateCreateAndUpdate(t *testing.T) {
	assert := assert.New(t)
	b := newBackend(t)
	config := writeConfig(t, b.URL)

	out, err := run("--config", config, "template", "create", "--name", "thermo", "--device-type", "sensor", "--module", "3303", "--all")
	assert.NoError(err)
	assert.Equal("template 1 (thermo) created\n", out)

	lw := b.template(t, "1")
	assert.Equal("p1", lw.ProjectID)
	assert.Equal(v1alpha1.ProtocolLwM2M, lw.TransportType)
	assert.Len(lw.TransportConfig.Info.ModuleConfig, 1)
	module := lw.TransportConfig.Info.ModuleConfig[0]
	assert.Equal("3303", module.ID)
	assert.Equal("Temperature", module.ModuleName)
	assert.Equal(2, module.NumberOfAttributes)
	assert.True(module.AllCheckbox)
	assert.Equal(map[string]string{"/3303/0/5700": "sensorvalue", "/3303/0/5701": "sensorunits"}, lw.TransportConfig.Config)

	out, err = run("--config", config, "template", "update", "1", "--uncheck", "/3303/0/5701", "--rename", "/3303/0/5700=temperature")
	assert.NoError(err)
	assert.Equal("template 1 (thermo) updated\n", out)

	lw = b.template(t, "1")
	assert.Equal("thermo", lw.Name)
	assert.Equal("sensor", lw.DeviceType)
	module = lw.TransportConfig.Info.ModuleConfig[0]
	assert.Equal(1, module.NumberOfAttributes)
	assert.False(module.AllCheckbox)
	assert.Equal(map[string]string{"/3303/0/5700": "temperature"}, lw.TransportConfig.Config)

	out, err = run("--config", config, "template", "get", "1")
	assert.NoError(err)
	assert.Contains(out, "Name:        thermo")
	assert.Contains(out, "temperature")
	assert.NotContains(out, "/3303/0/5701")

	out, err = run("--config", config, "template", "list")
	assert.NoError(err)
	assert.Contains(out, "thermo")
	assert.Contains(out, "showing 1 of 1 templates from offset 0")
}

func TestTemplateCreateDryRun(t *testing.T) {
	assert := assert.New(t)
	b := newBackend(t)
	config := writeConfig(t, b.URL)

	out, err := run("--config", config, "template", "create", "--name", "thermo", "--module", "3303", "--resource", "/3303/0/5700=temp", "--dry-run")
	assert.NoError(err)

	var tc v1alpha1.TransportConfig
	assert.NoError(json.Unmarshal([]byte(out), &tc))
	assert.Equal(map[string]string{"/3303/0/5700": "temp"}, tc.Config)
	assert.Equal(0, b.writes)
}

func TestTemplateCreateErrors(t *testing.T) {
	assert := assert.New(t)
	b := newBackend(t)
	config := writeConfig(t, b.URL)

	_, err := run("--config", config, "template", "create", "--name", "thermo", "--module", "12345678")
	assert.ErrorContains(err, "module 12345678 is not in the catalog")

	_, err = run("--config", config, "template", "create", "--name", "thermo", "--module", "3303", "--resource", "/3303/0/5605")
	assert.ErrorContains(err, "/3303/0/5605")

	_, err = run("--config", config, "template", "create", "--name", "thermo", "--module", "3304", "--all")
	assert.ErrorContains(err, "module 3304")

	_, err = run("--config", config, "template", "create", "--module", "3303", "--all")
	assert.True(templates.IsValidationError(err))

	_, err = run("--config", config, "template", "update", "1", "--rename", "/3303/0/5700")
	assert.Error(err)

	assert.Equal(0, b.writes)
}

func TestApplyLogging(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	logFile := filepath.Join(dir, "lwm2mctl.log")
	config := filepath.Join(dir, "console.yaml")
	assert.NoError(os.WriteFile(config, []byte(fmt.Sprintf("logging:\n  logToStderr: false\n  logFile: %s\n  logFileMaxSize: 10\n", logFile)), 0600))

	root := NewLwM2MCtlCommand(io.Discard, io.Discard)
	t.Cleanup(func() {
		flags := root.PersistentFlags()
		_ = flags.Set("logtostderr", "true")
		_ = flags.Set("log-file", "")
		_ = flags.Set("log-file-max-size", "1800")
	})

	root.SetArgs([]string{"--config", config, "version", "-o", "short"})
	assert.NoError(root.Execute())
	flags := root.PersistentFlags()
	assert.Equal("false", flags.Lookup("logtostderr").Value.String())
	assert.Equal(logFile, flags.Lookup("log-file").Value.String())
	assert.Equal("10", flags.Lookup("log-file-max-size").Value.String())

	// the command line wins over the file
	root = NewLwM2MCtlCommand(io.Discard, io.Discard)
	root.SetArgs([]string{"--config", config, "--logtostderr=true", "version", "-o", "short"})
	assert.NoError(root.Execute())
	assert.Equal("true", root.PersistentFlags().Lookup("logtostderr").Value.String())
}

func TestRuntimeWithoutBroker(t *testing.T) {
	assert := assert.New(t)
	b := newBackend(t)
	config := writeConfig(t, b.URL)
	f, err := os.OpenFile(config, os.O_APPEND|os.O_WRONLY, 0600)
	assert.NoError(err)
	_, err = f.WriteString("eventBus:\n  enable: true\n  server: tcp://127.0.0.1:1\n")
	assert.NoError(err)
	assert.NoError(f.Close())

	timeout := eventBusStartTimeout
	eventBusStartTimeout = 200 * time.Millisecond
	defer func() { eventBusStartTimeout = timeout }()

	opts := options.NewConsoleOptions()
	opts.ConfigFile = config

	// a watch cannot work without the broker
	_, err = newRuntime(context.Background(), opts, func(templates.Event) {})
	assert.Error(err)

	rt, err := newRuntime(context.Background(), opts, nil)
	assert.NoError(err)
	defer rt.Close()
	assert.Nil(rt.notifier)
	assert.False(rt.templates.Shared())

	s, err := session.NewCreateSession(rt.deps(), "p1")
	assert.NoError(err)
	s.Store().SelectModule(context.Background(), "3303")
	assert.NoError(s.Store().WaitContext(context.Background()))
	assert.NoError(s.Store().ToggleAllInModule("3303", true))
	out, err := s.Submit(context.Background(), session.Meta{Name: "thermo"})
	assert.NoError(err)
	assert.Equal("thermo", out.Name)
	assert.Equal(1, b.writes)
}
