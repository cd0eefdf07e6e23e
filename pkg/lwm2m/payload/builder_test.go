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

package payload

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kubeedge/lwm2mconsole/pkg/apis/templates/v1alpha1"
	"github.com/kubeedge/lwm2mconsole/pkg/lwm2m/objectdef"
	"github.com/kubeedge/lwm2mconsole/pkg/lwm2m/selection"
)

var modified = time.UnixMilli(1767322800000)

func temperature() *objectdef.ObjectDefinition {
	return &objectdef.ObjectDefinition{
		ObjectID:   "3303",
		ObjectName: "Temperature",
		Resources: []objectdef.ResourceDefinition{
			{ResourceID: "5700", Name: "Sensor Value", Operations: "R", Multiplicity: "Single", ValueType: "Float"},
			{ResourceID: "5701", Name: "Sensor Units", Operations: "R", Multiplicity: "Single", ValueType: "String"},
			{ResourceID: "5605", Name: "Reset", Operations: "E", Multiplicity: "Single"},
		},
	}
}

func testState() selection.SelectionState {
	return selection.SelectionState{
		SelectedModuleIDs: []string{"3303", "3304"},
		CheckedResources: map[string]bool{
			"/3303/0/5701": true,
			"/3303/0/5700": true,
			"/3304/0/5700": true,
		},
		ResourceDisplayNames: map[string]string{
			"/3303/0/5701": "unit",
			"/3304/0/5700": "hum",
		},
		ModuleSummaries: map[string]selection.ModuleSummary{
			"3303": {ModuleName: "Temperature", CheckedCount: 2, SelectableCount: 2, AllSelected: true, LastModifiedAt: modified},
			"3304": {ModuleName: "Humidity", CheckedCount: 1, SelectableCount: -1},
		},
		Definitions: map[string]*objectdef.ObjectDefinition{
			"3303": temperature(),
		},
	}
}

func TestBuild(t *testing.T) {
	tc := Build(testState())

	want := v1alpha1.TransportConfig{
		Protocol: "lwm2m",
		Config: map[string]string{
			"/3303/0/5700": "sensorvalue",
			"/3303/0/5701": "unit",
			"/3304/0/5700": "hum",
		},
		Info: v1alpha1.TransportInfo{ModuleConfig: []v1alpha1.ModuleConfigEntry{
			{
				ID:         "3303",
				ModuleName: "Temperature",
				AttributeInfo: []v1alpha1.AttributeEntry{
					{Action: "R", ID: "/3303/0/5700", Kind: "Single", Name: "sensorvalue", Type: "Float"},
					{Action: "R", ID: "/3303/0/5701", Kind: "Single", Name: "unit", Type: "String"},
				},
				NumberOfAttributes: 2,
				LastUpdateTS:       1767322800000,
				AllCheckbox:        true,
			},
			{
				ID:                 "3304",
				ModuleName:         "Humidity",
				AttributeInfo:      []v1alpha1.AttributeEntry{{ID: "/3304/0/5700", Name: "hum"}},
				NumberOfAttributes: 1,
			},
		}},
	}
	assert.Equal(t, want, tc)
}

func TestBuildDeterministic(t *testing.T) {
	state := testState()
	first, err := json.Marshal(Build(state))
	assert.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := json.Marshal(Build(state))
		assert.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestBuildEmpty(t *testing.T) {
	tc := Build(selection.SelectionState{})
	data, err := json.Marshal(tc)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"protocol":"lwm2m","config":{},"info":{"module_config":[]}}`, string(data))
}

func TestBuildSelectedModuleWithoutChecks(t *testing.T) {
	state := selection.SelectionState{
		SelectedModuleIDs: []string{"3303"},
		ModuleSummaries: map[string]selection.ModuleSummary{
			"3303": {ModuleName: "Temperature", SelectableCount: 2},
		},
		Definitions: map[string]*objectdef.ObjectDefinition{"3303": temperature()},
	}
	tc := Build(state)
	assert.Len(t, tc.Info.ModuleConfig, 1)
	assert.Empty(t, tc.Info.ModuleConfig[0].AttributeInfo)
	assert.NotNil(t, tc.Info.ModuleConfig[0].AttributeInfo)
	assert.Empty(t, tc.Config)
}

func TestExtractSelection(t *testing.T) {
	assert := assert.New(t)

	seed, err := ExtractSelection(Build(testState()))
	assert.NoError(err)
	assert.Equal([]selection.SeedModule{
		{ID: "3303", Name: "Temperature", LastModifiedAt: modified},
		{ID: "3304", Name: "Humidity"},
	}, seed.Modules)
	assert.Equal([]string{"/3303/0/5700", "/3303/0/5701", "/3304/0/5700"}, seed.Checked)
	assert.Equal("unit", seed.DisplayNames["/3303/0/5701"])
	assert.Equal("sensorvalue", seed.DisplayNames["/3303/0/5700"])
}

func TestExtractSelectionConfigOnlyKey(t *testing.T) {
	tc := v1alpha1.TransportConfig{
		Protocol: "lwm2m",
		Config:   map[string]string{"/3303/0/5700": "t"},
		Info: v1alpha1.TransportInfo{ModuleConfig: []v1alpha1.ModuleConfigEntry{
			{ID: "3303", ModuleName: "Temperature"},
		}},
	}
	seed, err := ExtractSelection(tc)
	assert.NoError(t, err)
	assert.Equal(t, []string{"/3303/0/5700"}, seed.Checked)
	assert.Equal(t, "t", seed.DisplayNames["/3303/0/5700"])
	assert.True(t, seed.Modules[0].LastModifiedAt.IsZero())
}

func TestExtractSelectionErrors(t *testing.T) {
	tests := []struct {
		name string
		tc   v1alpha1.TransportConfig
	}{
		{
			name: "other protocol",
			tc:   v1alpha1.TransportConfig{Protocol: "mqtt"},
		},
		{
			name: "module without id",
			tc:   v1alpha1.TransportConfig{Info: v1alpha1.TransportInfo{ModuleConfig: []v1alpha1.ModuleConfigEntry{{ModuleName: "x"}}}},
		},
		{
			name: "bad key",
			tc:   v1alpha1.TransportConfig{Config: map[string]string{"3303/5700": "x"}},
		},
		{
			name: "orphan key",
			tc:   v1alpha1.TransportConfig{Config: map[string]string{"/3303/0/5700": "x"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractSelection(tt.tc)
			assert.Error(t, err)
		})
	}
}
