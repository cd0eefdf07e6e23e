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
	"fmt"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/kubeedge/lwm2mconsole/pkg/apis/templates/v1alpha1"
	"github.com/kubeedge/lwm2mconsole/pkg/lwm2m/resourcekey"
)

// MaxNameLength is the longest template name the backend accepts.
const MaxNameLength = 255

// ValidateCreateTemplateRequest validates `r` and returns an errorList if it is invalid
func ValidateCreateTemplateRequest(r *v1alpha1.CreateTemplateRequest) field.ErrorList {
	allErrs := field.ErrorList{}
	allErrs = append(allErrs, ValidateName(r.Name, field.NewPath("name"))...)
	if r.ProjectID == "" {
		allErrs = append(allErrs, field.Required(field.NewPath("project_id"), "project id is required"))
	}
	allErrs = append(allErrs, ValidateTransportType(r.TransportType, field.NewPath("transport_type"))...)
	allErrs = append(allErrs, ValidateTransportConfig(r.TransportConfig, field.NewPath("transport_config"))...)
	return allErrs
}

// ValidateUpdateTemplateRequest validates `r` and returns an errorList if it is invalid
func ValidateUpdateTemplateRequest(r *v1alpha1.UpdateTemplateRequest) field.ErrorList {
	allErrs := field.ErrorList{}
	allErrs = append(allErrs, ValidateName(r.Name, field.NewPath("name"))...)
	allErrs = append(allErrs, ValidateTransportType(r.TransportType, field.NewPath("transport_type"))...)
	allErrs = append(allErrs, ValidateTransportConfig(r.TransportConfig, field.NewPath("transport_config"))...)
	return allErrs
}

// ValidateName validates a template name.
func ValidateName(name string, fldPath *field.Path) field.ErrorList {
	allErrs := field.ErrorList{}
	switch {
	case name == "":
		allErrs = append(allErrs, field.Required(fldPath, "template name is required"))
	case len(name) > MaxNameLength:
		allErrs = append(allErrs, field.TooLong(fldPath, name, MaxNameLength))
	}
	return allErrs
}

// ValidateTransportType validates the transport type of a request.
func ValidateTransportType(t string, fldPath *field.Path) field.ErrorList {
	if t != v1alpha1.ProtocolLwM2M {
		return field.ErrorList{field.NotSupported(fldPath, t, []string{v1alpha1.ProtocolLwM2M})}
	}
	return field.ErrorList{}
}

// ValidateTransportConfig validates the LwM2M transport config `tc`.
func ValidateTransportConfig(tc v1alpha1.TransportConfig, fldPath *field.Path) field.ErrorList {
	allErrs := field.ErrorList{}
	if tc.Protocol != v1alpha1.ProtocolLwM2M {
		allErrs = append(allErrs, field.NotSupported(fldPath.Child("protocol"), tc.Protocol, []string{v1alpha1.ProtocolLwM2M}))
	}

	modulesPath := fldPath.Child("info", "module_config")
	if len(tc.Info.ModuleConfig) == 0 {
		allErrs = append(allErrs, field.Required(modulesPath, "at least one module must be selected"))
	}
	modules := make(map[string]bool, len(tc.Info.ModuleConfig))
	for i, m := range tc.Info.ModuleConfig {
		idxPath := modulesPath.Index(i)
		if m.ID == "" {
			allErrs = append(allErrs, field.Required(idxPath.Child("id"), ""))
			continue
		}
		if modules[m.ID] {
			allErrs = append(allErrs, field.Duplicate(idxPath.Child("id"), m.ID))
			continue
		}
		modules[m.ID] = true
		if m.NumberOfAttributes != len(m.AttributeInfo) {
			allErrs = append(allErrs, field.Invalid(idxPath.Child("numberOfAttributes"), m.NumberOfAttributes,
				fmt.Sprintf("must equal the number of attributes (%d)", len(m.AttributeInfo))))
		}
		for j, attr := range m.AttributeInfo {
			attrPath := idxPath.Child("attribute_info").Index(j).Child("id")
			objectID, _, err := resourcekey.Parse(attr.ID)
			if err != nil {
				allErrs = append(allErrs, field.Invalid(attrPath, attr.ID, err.Error()))
				continue
			}
			if objectID != m.ID {
				allErrs = append(allErrs, field.Invalid(attrPath, attr.ID, fmt.Sprintf("resource does not belong to module %s", m.ID)))
			}
		}
	}

	configPath := fldPath.Child("config")
	for key := range tc.Config {
		objectID, _, err := resourcekey.Parse(key)
		if err != nil {
			allErrs = append(allErrs, field.Invalid(configPath.Key(key), key, err.Error()))
			continue
		}
		if !modules[objectID] {
			allErrs = append(allErrs, field.Invalid(configPath.Key(key), key, fmt.Sprintf("module %s is not selected", objectID)))
		}
	}
	return allErrs
}
