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
	"reflect"
	"strings"
	"testing"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/kubeedge/lwm2mconsole/pkg/apis/templates/v1alpha1"
)

func validConfig() v1alpha1.TransportConfig {
	return v1alpha1.TransportConfig{
		Protocol: v1alpha1.ProtocolLwM2M,
		Config:   map[string]string{"/3303/0/5700": "sensorvalue"},
		Info: v1alpha1.TransportInfo{ModuleConfig: []v1alpha1.ModuleConfigEntry{{
			ID:                 "3303",
			ModuleName:         "Temperature",
			AttributeInfo:      []v1alpha1.AttributeEntry{{Action: "R", ID: "/3303/0/5700", Kind: "Single", Name: "sensorvalue", Type: "Float"}},
			NumberOfAttributes: 1,
		}}},
	}
}

func TestValidateCreateTemplateRequest(t *testing.T) {
	req := &v1alpha1.CreateTemplateRequest{
		Name:            "thermo",
		ProjectID:       "p1",
		TransportType:   v1alpha1.ProtocolLwM2M,
		TransportConfig: validConfig(),
	}
	if errList := ValidateCreateTemplateRequest(req); len(errList) > 0 {
		t.Errorf("request is not correct: %v", errList)
	}

	req.ProjectID = ""
	req.Name = ""
	errList := ValidateCreateTemplateRequest(req)
	if len(errList) != 2 {
		t.Fatalf("expected 2 errors, got %v", errList)
	}
	for _, err := range errList {
		if err.Type != field.ErrorTypeRequired {
			t.Errorf("unexpected error %v", err)
		}
	}
}

func TestValidateUpdateTemplateRequest(t *testing.T) {
	req := &v1alpha1.UpdateTemplateRequest{
		Name:            "thermo",
		TransportType:   "mqtt",
		TransportConfig: validConfig(),
	}
	errList := ValidateUpdateTemplateRequest(req)
	expected := field.ErrorList{field.NotSupported(field.NewPath("transport_type"), "mqtt", []string{"lwm2m"})}
	if !reflect.DeepEqual(errList, expected) {
		t.Errorf("got %v, want %v", errList, expected)
	}
}

func TestValidateName(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected field.ErrorList
	}{
		{
			name:     "case1 valid",
			input:    "thermo",
			expected: field.ErrorList{},
		},
		{
			name:     "case2 empty",
			input:    "",
			expected: field.ErrorList{field.Required(field.NewPath("name"), "template name is required")},
		},
		{
			name:     "case3 max length",
			input:    strings.Repeat("a", MaxNameLength),
			expected: field.ErrorList{},
		},
		{
			name:     "case4 too long",
			input:    strings.Repeat("a", MaxNameLength+1),
			expected: field.ErrorList{field.TooLong(field.NewPath("name"), strings.Repeat("a", MaxNameLength+1), MaxNameLength)},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if result := ValidateName(c.input, field.NewPath("name")); !reflect.DeepEqual(result, c.expected) {
				t.Errorf("%v: expected %v, but got %v", c.name, c.expected, result)
			}
		})
	}
}

func TestValidateTransportConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(tc *v1alpha1.TransportConfig)
		types  []field.ErrorType
	}{
		{
			name:   "case1 valid",
			mutate: func(tc *v1alpha1.TransportConfig) {},
		},
		{
			name:   "case2 wrong protocol",
			mutate: func(tc *v1alpha1.TransportConfig) { tc.Protocol = "coap" },
			types:  []field.ErrorType{field.ErrorTypeNotSupported},
		},
		{
			name: "case3 no modules",
			mutate: func(tc *v1alpha1.TransportConfig) {
				tc.Info.ModuleConfig = nil
				tc.Config = nil
			},
			types: []field.ErrorType{field.ErrorTypeRequired},
		},
		{
			name:   "case4 malformed config key",
			mutate: func(tc *v1alpha1.TransportConfig) { tc.Config["3303.5700"] = "x" },
			types:  []field.ErrorType{field.ErrorTypeInvalid},
		},
		{
			name:   "case5 config key of unselected module",
			mutate: func(tc *v1alpha1.TransportConfig) { tc.Config["/3304/0/5700"] = "x" },
			types:  []field.ErrorType{field.ErrorTypeInvalid},
		},
		{
			name: "case6 duplicate module",
			mutate: func(tc *v1alpha1.TransportConfig) {
				tc.Info.ModuleConfig = append(tc.Info.ModuleConfig, tc.Info.ModuleConfig[0])
			},
			types: []field.ErrorType{field.ErrorTypeDuplicate},
		},
		{
			name: "case7 attribute of another module",
			mutate: func(tc *v1alpha1.TransportConfig) {
				tc.Info.ModuleConfig[0].AttributeInfo[0].ID = "/3304/0/5700"
			},
			types: []field.ErrorType{field.ErrorTypeInvalid},
		},
		{
			name:   "case8 attribute count mismatch",
			mutate: func(tc *v1alpha1.TransportConfig) { tc.Info.ModuleConfig[0].NumberOfAttributes = 3 },
			types:  []field.ErrorType{field.ErrorTypeInvalid},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tc := validConfig()
			c.mutate(&tc)
			result := ValidateTransportConfig(tc, field.NewPath("transport_config"))
			if len(result) != len(c.types) {
				t.Fatalf("%v: expected %d errors, but got %v", c.name, len(c.types), result)
			}
			for i, typ := range c.types {
				if result[i].Type != typ {
					t.Errorf("%v: expected %v, but got %v", c.name, typ, result[i])
				}
			}
		})
	}
}
