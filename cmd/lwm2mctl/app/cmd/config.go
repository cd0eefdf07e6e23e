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
	"fmt"
	"io"

	"github.com/spf13/cobra"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kubeedge/lwm2mconsole/cmd/lwm2mctl/app/options"
	"github.com/kubeedge/lwm2mconsole/pkg/apis/componentconfig/console/v1alpha1"
)

const redacted = "REDACTED"

// NewCmdConfig groups the configuration commands
func NewCmdConfig(out io.Writer, opts *options.ConsoleOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the lwm2mctl configuration",
	}
	cmd.AddCommand(newCmdConfigDefault(out))
	cmd.AddCommand(newCmdConfigView(out, opts))
	return cmd
}

func newCmdConfigDefault(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "default",
		Short: "Print a full default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printObject(out, outputYAML, v1alpha1.NewDefaultConsoleConfig())
		},
	}
}

func newCmdConfigView(out io.Writer, opts *options.ConsoleOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Print the effective configuration, with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if errs := opts.Validate(); len(errs) > 0 {
				return utilerrors.NewAggregate(errs)
			}
			config, err := opts.Config()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if config.Server.Token != "" {
				config.Server.Token = redacted
			}
			if config.EventBus != nil && config.EventBus.Password != "" {
				config.EventBus.Password = redacted
			}
			return printObject(out, outputYAML, config)
		},
	}
}
