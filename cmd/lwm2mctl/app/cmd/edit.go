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
	"strings"

	"github.com/spf13/cobra"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"k8s.io/klog/v2"

	"github.com/kubeedge/lwm2mconsole/cmd/lwm2mctl/app/options"
	"github.com/kubeedge/lwm2mconsole/pkg/apis/templates/v1alpha1/validation"
	"github.com/kubeedge/lwm2mconsole/pkg/client/templates"
	"github.com/kubeedge/lwm2mconsole/pkg/lwm2m/catalog"
	"github.com/kubeedge/lwm2mconsole/pkg/lwm2m/resourcekey"
	"github.com/kubeedge/lwm2mconsole/pkg/lwm2m/selection"
	"github.com/kubeedge/lwm2mconsole/pkg/session"
	"github.com/kubeedge/lwm2mconsole/pkg/util/slices"
)

// editOptions are the selection edits of template create and update,
// applied in field order.
type editOptions struct {
	name        string
	description string
	deviceType  string

	removeModules []string
	addModules    []string
	checkAll      []string
	uncheckAll    []string
	check         []string
	uncheck       []string
	rename        []string

	dryRun bool
	output string
}

func (o *editOptions) addMetaFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&o.name, "name", o.name, "Template name")
	fs.StringVar(&o.description, "description", o.description, "Template description")
	fs.StringVar(&o.deviceType, "device-type", o.deviceType, "Device type of the template")
	fs.StringSliceVar(&o.check, "resource", o.check, "Resource key to report, such as /3303/0/5700, optionally followed by =DISPLAY_NAME. Repeatable")
	fs.StringSliceVar(&o.rename, "rename", o.rename, "KEY=DISPLAY_NAME overriding the display name of a checked resource. Repeatable")
	fs.BoolVar(&o.dryRun, "dry-run", o.dryRun, "Print the transport config instead of saving the template")
	fs.StringVarP(&o.output, "output", "o", outputJSON, "Output format of --dry-run; available options are 'json' and 'yaml'")
}

func newCmdTemplateCreate(out io.Writer, opts *options.ConsoleOptions) *cobra.Command {
	o := &editOptions{}
	var all bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a template from catalog modules",
		Example: `
# report every resource of the Temperature object
lwm2mctl template create --name thermo --module 3303 --all

# report two resources, one with a custom name
lwm2mctl template create --name thermo --module 3303 \
    --resource /3303/0/5700=temperature --resource /3303/0/5701`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				o.checkAll = o.addModules
			}
			return runTemplateEdit(cmd.Context(), out, opts, "", o, nil)
		},
	}
	o.addMetaFlags(cmd)
	cmd.Flags().StringSliceVar(&o.addModules, "module", nil, "Catalog id of a module to add. Repeatable")
	cmd.Flags().BoolVar(&all, "all", false, "Report every selectable resource of the added modules")
	return cmd
}

func newCmdTemplateUpdate(out io.Writer, opts *options.ConsoleOptions) *cobra.Command {
	o := &editOptions{}
	cmd := &cobra.Command{
		Use:   "update TEMPLATE_ID",
		Short: "Edit the modules and resources of a template",
		Example: `
# stop reporting one resource and add the Humidity object
lwm2mctl template update 42 --uncheck /3303/0/5701 --add-module 3304 --check-all 3304`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			return runTemplateEdit(cmd.Context(), out, opts, args[0], o, func(m session.Meta) session.Meta {
				if fs.Changed("name") {
					m.Name = o.name
				}
				if fs.Changed("description") {
					m.Description = o.description
				}
				if fs.Changed("device-type") {
					m.DeviceType = o.deviceType
				}
				return m
			})
		},
	}
	o.addMetaFlags(cmd)
	fs := cmd.Flags()
	fs.StringSliceVar(&o.addModules, "add-module", nil, "Catalog id of a module to add. Repeatable")
	fs.StringSliceVar(&o.removeModules, "remove-module", nil, "Catalog id of a module to remove with all its resources. Repeatable")
	fs.StringSliceVar(&o.checkAll, "check-all", nil, "Module whose selectable resources are all reported. Repeatable")
	fs.StringSliceVar(&o.uncheckAll, "uncheck-all", nil, "Module whose resources are all cleared. Repeatable")
	fs.StringSliceVar(&o.uncheck, "uncheck", nil, "Resource key to stop reporting. Repeatable")
	return cmd
}

// runTemplateEdit opens a create session when templateID is empty and an
// update session otherwise. meta rewrites the loaded metadata of updates.
func runTemplateEdit(ctx context.Context, out io.Writer, opts *options.ConsoleOptions, templateID string, o *editOptions, meta func(session.Meta) session.Meta) error {
	if o.dryRun {
		if err := validateOutput(o.output); err != nil {
			return err
		}
	}
	rt, err := newRuntime(ctx, opts, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	var s *session.Session
	if templateID == "" {
		projectID, err := rt.projectID()
		if err != nil {
			return err
		}
		if s, err = session.NewCreateSession(rt.deps(), projectID); err != nil {
			return err
		}
	} else {
		if s, err = session.NewUpdateSession(ctx, rt.deps(), templateID); err != nil {
			return err
		}
	}
	defer s.Cancel()

	if err := o.apply(ctx, s); err != nil {
		return err
	}

	m := session.Meta{Name: o.name, Description: o.description, DeviceType: o.deviceType}
	if meta != nil {
		m = meta(s.Meta())
	}
	if o.dryRun {
		tc := s.Payload()
		if errs := validation.ValidateTransportConfig(tc, field.NewPath("transport_config")); len(errs) > 0 {
			return &templates.ValidationError{Errs: errs}
		}
		return printObject(out, o.output, tc)
	}

	tpl, err := s.Submit(ctx, m)
	if err != nil {
		return err
	}
	verb := "updated"
	if templateID == "" {
		verb = "created"
	}
	fmt.Fprintf(out, "template %s (%s) %s\n", tpl.ID, tpl.Name, verb)
	return nil
}

func (o *editOptions) apply(ctx context.Context, s *session.Session) error {
	store := s.Store()
	var errs []error

	for _, id := range slices.Unique(o.removeModules) {
		store.DeselectModule(id)
	}
	for _, id := range slices.Unique(o.addModules) {
		if _, ok := catalog.Default().Get(id); !ok {
			errs = append(errs, fmt.Errorf("module %s is not in the catalog", id))
			continue
		}
		store.SelectModule(ctx, id)
	}
	if len(errs) > 0 {
		return utilerrors.NewAggregate(errs)
	}
	if err := waitForDefinitions(ctx, s); err != nil {
		return err
	}

	for _, id := range o.checkAll {
		errs = append(errs, store.ToggleAllInModule(id, true))
	}
	for _, id := range o.uncheckAll {
		errs = append(errs, store.ToggleAllInModule(id, false))
	}
	for _, v := range o.check {
		key, name, _ := strings.Cut(v, "=")
		errs = append(errs, setChecked(store, key, true))
		if name != "" {
			errs = append(errs, store.SetResourceDisplayName(key, name))
		}
	}
	for _, key := range o.uncheck {
		errs = append(errs, setChecked(store, key, false))
	}
	for _, v := range o.rename {
		key, name, ok := strings.Cut(v, "=")
		if !ok || name == "" {
			errs = append(errs, fmt.Errorf("invalid --rename %q, want KEY=DISPLAY_NAME", v))
			continue
		}
		errs = append(errs, store.SetResourceDisplayName(key, name))
	}
	return utilerrors.NewAggregate(errs)
}

func setChecked(store *selection.Store, key string, checked bool) error {
	objectID, resourceID, err := resourcekey.Parse(key)
	if err != nil {
		return err
	}
	if err := store.SetResourceChecked(objectID, resourceID, checked); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// waitForDefinitions retries every failed module once.
func waitForDefinitions(ctx context.Context, s *session.Session) error {
	if err := s.Wait(ctx); err != nil {
		return err
	}
	store := s.Store()
	var failed []string
	for _, id := range store.Snapshot().SelectedModuleIDs {
		if st, ok := store.Status(id); ok && st.Phase == selection.ModuleFailed {
			klog.Warningf("definition of module %s unavailable, retrying: %v", id, st.Err)
			if err := store.RetryModule(ctx, id); err != nil {
				return err
			}
			failed = append(failed, id)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	if err := s.Wait(ctx); err != nil {
		return err
	}
	var errs []error
	for _, id := range failed {
		if st, ok := store.Status(id); ok && st.Phase == selection.ModuleFailed {
			errs = append(errs, fmt.Errorf("module %s: %w: %v", id, selection.ErrDefinitionUnavailable, st.Err))
		}
	}
	return utilerrors.NewAggregate(errs)
}
