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
	"flag"
	"strconv"

	"github.com/spf13/cobra"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/klog/v2"

	"github.com/kubeedge/lwm2mconsole/cmd/lwm2mctl/app/options"
)

// addKlogFlags registers the klog flags on the persistent flags of cmd and
// returns the go flag set backing them.
func addKlogFlags(cmd *cobra.Command) (*flag.FlagSet, error) {
	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	if err := klogFlags.Set("v", "0"); err != nil {
		return nil, err
	}
	flags := cmd.PersistentFlags()
	flags.SetNormalizeFunc(cliflag.WordSepNormalizeFunc)
	flags.AddGoFlagSet(klogFlags)
	return klogFlags, nil
}

// applyLogging copies the logging section of the config file into the klog
// flags the command line left unset.
func applyLogging(cmd *cobra.Command, klogFlags *flag.FlagSet, opts *options.ConsoleOptions) error {
	cfg, err := opts.LoadFile()
	if err != nil || cfg.Logging == nil {
		// commands that need the config report a broken file themselves
		return nil
	}
	l := cfg.Logging
	values := map[string]string{
		"logtostderr":       strconv.FormatBool(l.LogToStderr),
		"alsologtostderr":   strconv.FormatBool(l.AlsoLogToStderr),
		"log_file_max_size": strconv.FormatUint(l.LogFileMaxSize, 10),
	}
	if l.LogDir != "" {
		values["log_dir"] = l.LogDir
	}
	if l.LogFile != "" {
		values["log_file"] = l.LogFile
	}

	flags := cmd.Root().PersistentFlags()
	for name, value := range values {
		if flags.Changed(name) {
			continue
		}
		if err := klogFlags.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}
