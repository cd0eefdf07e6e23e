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
	"net"
	"net/url"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/kubeedge/lwm2mconsole/pkg/apis/componentconfig/console/v1alpha1"
	utilvalidation "github.com/kubeedge/lwm2mconsole/pkg/util/validation"
)

// ValidateConsoleConfiguration validates `c` and returns an errorList if it is invalid
func ValidateConsoleConfiguration(c *v1alpha1.ConsoleConfig) field.ErrorList {
	allErrs := field.ErrorList{}
	allErrs = append(allErrs, ValidateServer(c.Server)...)
	allErrs = append(allErrs, ValidateObjectCache(c.ObjectCache)...)
	allErrs = append(allErrs, ValidateTemplateCache(c.TemplateCache)...)
	allErrs = append(allErrs, ValidateEventBus(c.EventBus)...)
	allErrs = append(allErrs, ValidateMonitor(c.Monitor)...)
	allErrs = append(allErrs, ValidateLogging(c.Logging)...)
	return allErrs
}

// ValidateServer validates `s` and returns an errorList if it is invalid
func ValidateServer(s *v1alpha1.Server) field.ErrorList {
	allErrs := field.ErrorList{}
	fldPath := field.NewPath("server")
	if s == nil {
		return append(allErrs, field.Required(fldPath, "server config is required"))
	}
	if s.Address == "" {
		allErrs = append(allErrs, field.Required(fldPath.Child("address"), "backend address is required"))
	} else if u, err := url.Parse(s.Address); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		allErrs = append(allErrs, field.Invalid(fldPath.Child("address"), s.Address, "must be an http or https URL"))
	}
	if s.CAFile != "" && !utilvalidation.FileIsExist(s.CAFile) {
		allErrs = append(allErrs, field.Invalid(fldPath.Child("caFile"), s.CAFile, "caFile not exist"))
	}
	if s.TimeoutSeconds < 0 {
		allErrs = append(allErrs, field.Invalid(fldPath.Child("timeoutSeconds"), s.TimeoutSeconds, "must not be negative"))
	}
	if s.Burst < 0 {
		allErrs = append(allErrs, field.Invalid(fldPath.Child("burst"), s.Burst, "must not be negative"))
	}
	return allErrs
}

// ValidateObjectCache validates `o` and returns an errorList if it is invalid
func ValidateObjectCache(o *v1alpha1.ObjectCache) field.ErrorList {
	if o == nil || !o.Enable {
		return field.ErrorList{}
	}
	allErrs := field.ErrorList{}
	if o.DataSource == "" {
		allErrs = append(allErrs, field.Required(field.NewPath("objectCache", "dataSource"), "dataSource is required when the cache is enabled"))
	}
	return allErrs
}

// ValidateTemplateCache validates `tc` and returns an errorList if it is invalid
func ValidateTemplateCache(tc *v1alpha1.TemplateCache) field.ErrorList {
	if tc == nil || !tc.Enable {
		return field.ErrorList{}
	}
	allErrs := field.ErrorList{}
	if tc.Capacity < 0 {
		allErrs = append(allErrs, field.Invalid(field.NewPath("templateCache", "capacity"), tc.Capacity, "must not be negative"))
	}
	return allErrs
}

// ValidateEventBus validates `e` and returns an errorList if it is invalid
func ValidateEventBus(e *v1alpha1.EventBus) field.ErrorList {
	if e == nil || !e.Enable {
		return field.ErrorList{}
	}
	allErrs := field.ErrorList{}
	fldPath := field.NewPath("eventBus")
	if e.Server == "" {
		allErrs = append(allErrs, field.Required(fldPath.Child("server"), "broker address is required when the event bus is enabled"))
	} else if u, err := url.Parse(e.Server); err != nil || u.Host == "" {
		allErrs = append(allErrs, field.Invalid(fldPath.Child("server"), e.Server, "must be a broker URL such as tcp://127.0.0.1:1883"))
	} else {
		switch u.Scheme {
		case "tcp", "ssl", "tls", "ws", "wss", "mqtt", "mqtts":
		default:
			allErrs = append(allErrs, field.NotSupported(fldPath.Child("server"), u.Scheme, []string{"tcp", "ssl", "tls", "ws", "wss", "mqtt", "mqtts"}))
		}
	}
	if e.QOS > 2 {
		allErrs = append(allErrs, field.Invalid(fldPath.Child("qos"), e.QOS, "must be 0, 1 or 2"))
	}
	for name, f := range map[string]string{
		"tlsCAFile":         e.TLSCAFile,
		"tlsCertFile":       e.TLSCertFile,
		"tlsPrivateKeyFile": e.TLSPrivateKeyFile,
	} {
		if f != "" && !utilvalidation.FileIsExist(f) {
			allErrs = append(allErrs, field.Invalid(fldPath.Child(name), f, fmt.Sprintf("%s not exist", name)))
		}
	}
	if (e.TLSCertFile == "") != (e.TLSPrivateKeyFile == "") {
		allErrs = append(allErrs, field.Invalid(fldPath.Child("tlsCertFile"), e.TLSCertFile, "tlsCertFile and tlsPrivateKeyFile must be set together"))
	}
	return allErrs
}

// ValidateMonitor validates `m` and returns an errorList if it is invalid
func ValidateMonitor(m *v1alpha1.Monitor) field.ErrorList {
	if m == nil || !m.Enable {
		return field.ErrorList{}
	}
	allErrs := field.ErrorList{}
	if _, _, err := net.SplitHostPort(m.BindAddress); err != nil {
		allErrs = append(allErrs, field.Invalid(field.NewPath("monitor", "bindAddress"), m.BindAddress, err.Error()))
	}
	return allErrs
}

// ValidateLogging validates `l` and returns an errorList if it is invalid
func ValidateLogging(l *v1alpha1.Logging) field.ErrorList {
	allErrs := field.ErrorList{}
	if l == nil || l.LogToStderr {
		return allErrs
	}
	if l.LogDir == "" && l.LogFile == "" {
		allErrs = append(allErrs, field.Required(field.NewPath("logging", "logDir"), "logDir or logFile is required when logToStderr is false"))
	}
	return allErrs
}
