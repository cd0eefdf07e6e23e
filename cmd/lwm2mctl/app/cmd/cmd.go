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
	"io"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/kubeedge/lwm2mconsole/cmd/lwm2mctl/app/options"
)

var (
	lwm2mctlLongDescription = `
    +----------------------------------------------------------+
    | LWM2MCTL                                                 |
    | Build LwM2M device templates from the object registry    |
    +----------------------------------------------------------+
    |                                                          |
    | Example usage:                                           |
    |                                                          |
    | 'lwm2mctl catalog list --search temperature'             |
    |                                                          |
    | 'lwm2mctl template create --name thermo --module 3303 \  |
    |      --all --project-id p1'                              |
    |                                                          |
    +----------------------------------------------------------+
	`
	lwm2mctlExample = `
lwm2mctl is the command line console for LwM2M device templates.
Show the objects of the catalog, the resources of one object and
the templates of a project, or create and update templates.
`
)

// NewLwM2MCtlCommand returns the root command of lwm2mctl
func NewLwM2MCtlCommand(out, errOut io.Writer) *cobra.Command {
	opts := options.NewConsoleOptions()

	cmds := &cobra.Command{
		Use:           "lwm2mctl",
		Short:         "lwm2mctl: Build LwM2M device templates",
		Long:          lwm2mctlLongDescription,
		Example:       lwm2mctlExample,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmds.SetOut(out)
	cmds.SetErr(errOut)

	fs := cmds.PersistentFlags()
	for _, f := range opts.Flags().FlagSets {
		fs.AddFlagSet(f)
	}
	klogFlags, err := addKlogFlags(cmds)
	if err != nil {
		klog.Fatalf("error setting klog flags: %v", err)
	}
	cmds.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return applyLogging(cmd, klogFlags, opts)
	}

	cmds.AddCommand(NewCmdVersion(out))
	cmds.AddCommand(NewCmdConfig(out, opts))
	cmds.AddCommand(NewCmdCatalog(out))
	cmds.AddCommand(NewCmdObject(out, opts))
	cmds.AddCommand(NewCmdTemplate(out, opts))
	return cmds
}
