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

	"github.com/kubeedge/lwm2mconsole/cmd/lwm2mctl/app/options"
	"github.com/kubeedge/lwm2mconsole/pkg/lwm2m/resourcekey"
)

// NewCmdObject groups the object definition commands
func NewCmdObject(out io.Writer, opts *options.ConsoleOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "object",
		Short: "Show LwM2M object definitions",
	}
	cmd.AddCommand(newCmdObjectGet(out, opts))
	cmd.AddCommand(newCmdObjectCache(out, opts))
	return cmd
}

func newCmdObjectGet(out io.Writer, opts *options.ConsoleOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get OBJECT_ID",
		Short: "Print the resources of an object",
		Example: `
# resources of the Temperature object
lwm2mctl object get 3303`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			rt, err := newRuntime(cmd.Context(), opts, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			def, err := rt.fetcher.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output != "" {
				return printObject(out, output, def)
			}
			fmt.Fprintf(out, "%s %s\n\n", def.ObjectID, def.ObjectName)
			w := newTabWriter(out)
			fmt.Fprintln(w, "KEY\tNAME\tOPERATIONS\tTYPE\tMULTIPLICITY\tSELECTABLE")
			for _, r := range def.Resources {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n",
					resourcekey.Format(def.ObjectID, r.ResourceID), r.Name, r.Operations, r.ValueType, r.Multiplicity, r.Selectable())
			}
			return w.Flush()
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newCmdObjectCache(out io.Writer, opts *options.ConsoleOptions) *cobra.Command {
	var purge bool
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Show or purge the local object definition cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), opts, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			if rt.objects == nil {
				return fmt.Errorf("object cache is disabled")
			}
			if purge {
				if err := rt.objects.Purge(); err != nil {
					return err
				}
			}
			n, err := rt.objects.Count()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %d objects\n", rt.config.ObjectCache.DataSource, n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "Delete every cached definition")
	return cmd
}
