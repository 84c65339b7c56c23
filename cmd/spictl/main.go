/*
   Copyright 2025 The Go SPI Loader Authors.

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

// Command spictl inspects a process's extension registrations: which
// capabilities have classes registered, what a capability's manifest
// resolves to, and whether that manifest is well formed. It only sees
// registrations made by this process's own init() functions, so a useful
// spictl binary links in the capability and extension packages it is meant
// to inspect (see cmd/spigen for the AOT adaptive-dispatcher generator,
// which instead reads a JSON description and needs no registrations).
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pengbina/dubbo/apis"
	"github.com/pengbina/dubbo/classreg"
	"github.com/pengbina/dubbo/config"
	"github.com/pengbina/dubbo/internal/identity"
	"github.com/pengbina/dubbo/manifest"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	kindStyle   = lipgloss.NewStyle().Faint(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

var searchDirs []string

var rootCmd = &cobra.Command{
	Use:   "spictl",
	Short: "Inspect extension registrations and manifests",
}

func main() {
	rootCmd.PersistentFlags().StringSliceVar(&searchDirs, "search-dirs", nil, "manifest search directories, in precedence order")
	rootCmd.AddCommand(listCmd, inspectCmd, validateCmd, configCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func manifestConfig() apis.Config {
	if len(searchDirs) > 0 {
		return apis.Config{SearchDirs: searchDirs}
	}
	return apis.Config{SearchDirs: config.DefaultSearchDirs}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every capability with at least one registered class",
	RunE: func(cmd *cobra.Command, args []string) error {
		caps := classreg.Capabilities()
		if len(caps) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no capabilities registered")
			return nil
		}
		for _, cap := range caps {
			fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render(identity.EntityType(cap)))
			for _, d := range classreg.DescriptorsFor(cap) {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", d.Fqn, kindStyle.Render("("+d.Kind.String()+")"))
			}
		}
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <capability-fqn>",
	Short: "Show the merged manifest for a capability's resource path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := manifestConfig()
		entries, err := manifest.Load(cfg, args[0])
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), errStyle.Render(err.Error()))
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no manifest entries found")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-30s %s\n", joinNames(e.Names), e.Fqn, kindStyle.Render(e.Dir))
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <capability-fqn>",
	Short: "Check that a capability's manifest merges without conflicts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := manifestConfig()
		if _, err := manifest.Load(cfg, args[0]); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), errStyle.Render(err.Error()))
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("manifest OK"))
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective search-directory configuration as TOML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.NewConfig(config.WithSearchDirs(manifestConfig().SearchDirs...))
		out, err := config.Dump(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func joinNames(names []string) string {
	out := names[0]
	for _, n := range names[1:] {
		out += "," + n
	}
	return out
}
