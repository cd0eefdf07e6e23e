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
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kubeedge/lwm2mconsole/cmd/lwm2mctl/app/options"
	"github.com/kubeedge/lwm2mconsole/pkg/apis/templates/v1alpha1"
	"github.com/kubeedge/lwm2mconsole/pkg/client/templates"
)

// NewCmdTemplate groups the device template commands
func NewCmdTemplate(out io.Writer, opts *options.ConsoleOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"templates", "tpl"},
		Short:   "List, show, create and update device templates",
	}
	cmd.AddCommand(newCmdTemplateList(out, opts))
	cmd.AddCommand(newCmdTemplateGet(out, opts))
	cmd.AddCommand(newCmdTemplateCreate(out, opts))
	cmd.AddCommand(newCmdTemplateUpdate(out, opts))
	cmd.AddCommand(newCmdTemplateWatch(out, opts))
	return cmd
}

func newCmdTemplateList(out io.Writer, opts *options.ConsoleOptions) *cobra.Command {
	var (
		output        string
		offset, limit int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the templates of a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			rt, err := newRuntime(cmd.Context(), opts, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			projectID, err := rt.projectID()
			if err != nil {
				return err
			}
			list, err := rt.templates.ListTemplates(cmd.Context(), templates.ListOptions{
				ProjectID: projectID,
				Offset:    offset,
				Limit:     limit,
			})
			if err != nil {
				return err
			}
			if output != "" {
				return printObject(out, output, list)
			}
			w := newTabWriter(out)
			fmt.Fprintln(w, "ID\tNAME\tDEVICE TYPE\tTRANSPORT\tUPDATED")
			for _, t := range list.Templates {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Name, t.DeviceType, t.TransportType, formatMillis(t.UpdatedAt))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nshowing %d of %d templates from offset %d\n", len(list.Templates), list.Total, list.Offset)
			return nil
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "Index of the first template to list")
	cmd.Flags().IntVar(&limit, "limit", templates.DefaultListLimit, "Maximum number of templates to list")
	addOutputFlag(cmd, &output)
	return cmd
}

func newCmdTemplateGet(out io.Writer, opts *options.ConsoleOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get TEMPLATE_ID",
		Short: "Show a template and the resources it reports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			rt, err := newRuntime(cmd.Context(), opts, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			tpl, err := rt.templates.GetTemplateByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output != "" {
				return printObject(out, output, tpl)
			}
			return printTemplate(out, tpl)
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func printTemplate(out io.Writer, tpl *v1alpha1.Template) error {
	fmt.Fprintf(out, "ID:          %s\n", tpl.ID)
	fmt.Fprintf(out, "Name:        %s\n", tpl.Name)
	fmt.Fprintf(out, "Description: %s\n", tpl.Description)
	fmt.Fprintf(out, "Project:     %s\n", tpl.ProjectID)
	fmt.Fprintf(out, "Device type: %s\n", tpl.DeviceType)
	fmt.Fprintf(out, "Transport:   %s\n", tpl.TransportType)
	fmt.Fprintf(out, "Updated:     %s\n", formatMillis(tpl.UpdatedAt))
	if tpl.TransportType != "" && tpl.TransportType != v1alpha1.ProtocolLwM2M {
		return nil
	}
	lw, err := tpl.DecodeLwM2M()
	if err != nil {
		return fmt.Errorf("decode transport config: %w", err)
	}

	fmt.Fprintln(out)
	w := newTabWriter(out)
	fmt.Fprintln(w, "MODULE\tNAME\tRESOURCE\tDISPLAY NAME\tACTION\tTYPE")
	for _, m := range lw.TransportConfig.Info.ModuleConfig {
		if len(m.AttributeInfo) == 0 {
			fmt.Fprintf(w, "%s\t%s\t\t\t\t\n", m.ID, m.ModuleName)
		}
		for _, a := range m.AttributeInfo {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", m.ID, m.ModuleName, a.ID, lw.TransportConfig.Config[a.ID], a.Action, a.Type)
		}
	}
	return w.Flush()
}

func newCmdTemplateWatch(out io.Writer, opts *options.ConsoleOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the template changes made by other consoles until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, out, opts)
		},
	}
}

func runWatch(ctx context.Context, out io.Writer, opts *options.ConsoleOptions) error {
	var mu sync.Mutex
	rt, err := newRuntime(ctx, opts, func(e templates.Event) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", e.Type, e.TemplateID, e.ProjectID, e.Source)
	})
	if err != nil {
		return err
	}
	defer rt.Close()
	if rt.notifier == nil {
		return fmt.Errorf("event bus is disabled, enable eventBus in the config file")
	}

	<-ctx.Done()
	return nil
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
