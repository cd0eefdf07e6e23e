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

package options

import (
	"fmt"

	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/klog/v2"

	"github.com/kubeedge/lwm2mconsole/pkg/apis/componentconfig/console/v1alpha1"
	"github.com/kubeedge/lwm2mconsole/pkg/apis/componentconfig/console/v1alpha1/validation"
	utilvalidation "github.com/kubeedge/lwm2mconsole/pkg/util/validation"
)

// ConsoleOptions are the flags shared by every lwm2mctl command
type ConsoleOptions struct {
	ConfigFile string
	Server     string
	Token      string
	ProjectID  string
}

// NewConsoleOptions returns options with the default config file
func NewConsoleOptions() *ConsoleOptions {
	return &ConsoleOptions{
		ConfigFile: v1alpha1.DefaultConfigFile(),
	}
}

// Flags returns the named flag sets of o
func (o *ConsoleOptions) Flags() (fss cliflag.NamedFlagSets) {
	fs := fss.FlagSet("global")
	fs.StringVar(&o.ConfigFile, "config", o.ConfigFile, "The path to the configuration file. Flags override values in this file.")
	fs.StringVar(&o.Server, "server", o.Server, "The platform backend address, such as https://iot.example.com")
	fs.StringVar(&o.Token, "token", o.Token, "Bearer token for the platform backend")
	fs.StringVar(&o.ProjectID, "project-id", o.ProjectID, "The project templates belong to")
	return
}

// Validate checks the flag values
func (o *ConsoleOptions) Validate() []error {
	var errs []error
	if o.ConfigFile != v1alpha1.DefaultConfigFile() && !utilvalidation.FileIsExist(o.ConfigFile) {
		errs = append(errs, fmt.Errorf("config file %s not exist. For the configuration file format, please refer to the config default command", o.ConfigFile))
	}
	return errs
}

// LoadFile returns the defaults overlaid by the config file when it exists.
// Flags are not applied and nothing is validated.
func (o *ConsoleOptions) LoadFile() (*v1alpha1.ConsoleConfig, error) {
	cfg := v1alpha1.NewDefaultConsoleConfig()
	if o.ConfigFile != "" && utilvalidation.FileIsExist(o.ConfigFile) {
		if err := cfg.Parse(o.ConfigFile); err != nil {
			klog.Errorf("Parse config %s error %v", o.ConfigFile, err)
			return nil, err
		}
	}
	return cfg, nil
}

// Config returns the defaults, overlaid by the config file when it exists,
// overlaid by the flags
func (o *ConsoleOptions) Config() (*v1alpha1.ConsoleConfig, error) {
	cfg, err := o.LoadFile()
	if err != nil {
		return nil, err
	}
	if cfg.Server == nil {
		cfg.Server = v1alpha1.NewDefaultConsoleConfig().Server
	}
	if o.Server != "" {
		cfg.Server.Address = o.Server
	}
	if o.Token != "" {
		cfg.Server.Token = o.Token
	}
	if o.ProjectID != "" {
		cfg.ProjectID = o.ProjectID
	}
	if errs := validation.ValidateConsoleConfiguration(cfg); len(errs) > 0 {
		return nil, errs.ToAggregate()
	}
	return cfg, nil
}
