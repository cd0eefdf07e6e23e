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

	"github.com/kubeedge/lwm2mconsole/pkg/lwm2m/catalog"
)

// NewCmdCatalog groups the module catalog commands
func NewCmdCatalog(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse the LwM2M objects a template can use",
	}
	cmd.AddCommand(newCmdCatalogList(out))
	return cmd
}

func newCmdCatalogList(out io.Writer) *cobra.Command {
	var search, output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the catalog, optionally filtered by id or name",
		Example: `
# objects whose id or name contains "temp"
lwm2mctl catalog list --search temp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			entries := catalog.Default().Search(search)
			if output != "" {
				return printObject(out, output, entries)
			}
			w := newTabWriter(out)
			fmt.Fprintln(w, "ID\tNAME\tVERSION")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.CatalogID, e.DisplayName, e.Version)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Only list objects whose id or name contains this text, case insensitive")
	addOutputFlag(cmd, &output)
	return cmd
}
