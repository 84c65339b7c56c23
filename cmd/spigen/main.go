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

// Command spigen renders a capability's adaptive dispatcher source ahead of
// time, the preferred alternative to compiler.PluginBuild's runtime path.
// Its input is a JSON description of the capability's methods rather than
// parsed Go source: reflecting over a real interface type or running
// go/packages would pull the Go toolchain itself into the generator, which
// this module's spi package never needs for its own operation.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pengbina/dubbo/codegen"
)

var (
	inPath  string
	outPath string
)

var rootCmd = &cobra.Command{
	Use:   "spigen",
	Short: "Generate adaptive-dispatcher source for a capability",
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render <capability>_adaptive_gen.go from a JSON method description",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(inPath)
		if err != nil {
			return fmt.Errorf("spigen: reading %s: %w", inPath, err)
		}
		var spec codegen.Spec
		if err := json.Unmarshal(raw, &spec); err != nil {
			return fmt.Errorf("spigen: parsing %s: %w", inPath, err)
		}
		src, err := codegen.Generate(spec)
		if err != nil {
			return fmt.Errorf("spigen: %w", err)
		}
		if outPath == "" {
			fmt.Fprint(cmd.OutOrStdout(), src)
			return nil
		}
		if err := os.WriteFile(outPath, []byte(src), 0o644); err != nil {
			return fmt.Errorf("spigen: writing %s: %w", outPath, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
		return nil
	},
}

func main() {
	generateCmd.Flags().StringVar(&inPath, "in", "", "path to a JSON codegen.Spec")
	generateCmd.Flags().StringVar(&outPath, "out", "", "output .go path (default: stdout)")
	_ = generateCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(generateCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
