// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Command movebcdump decodes Move VM bytecode binaries and prints the
// requested pieces as JSON.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/saferwall/movebc"
)

var (
	verbose    bool
	asScript   bool
	wantCode   bool
	wantDefs   bool
	wantHandle bool
	wantAll    bool
)

func prettyPrint(buf []byte) string {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, buf, "", "\t"); err != nil {
		log.Println("JSON parse error: ", err)
		return string(buf)
	}
	return pretty.String()
}

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func dumpOne(filename string, cmd *cobra.Command) {
	if verbose {
		log.Printf("processing %s", filename)
	}

	data, err := ioutil.ReadFile(filename)
	if err != nil {
		log.Printf("reading %s: %v", filename, err)
		return
	}

	kind := movebc.KindModule
	if asScript {
		kind = movebc.KindScript
	}

	unit, err := movebc.OpenBytes(data, kind, nil)
	if err != nil {
		log.Printf("decoding %s: %v", filename, err)
		return
	}
	defer unit.Close()

	if wantAll || wantHandle {
		var payload interface{}
		if unit.Kind == movebc.KindModule {
			payload = unit.Module.ModuleHandles
		} else {
			payload = unit.Script.ModuleHandles
		}
		b, _ := json.Marshal(payload)
		fmt.Println(prettyPrint(b))
	}

	if (wantAll || wantDefs) && unit.Kind == movebc.KindModule {
		b, _ := json.Marshal(unit.Module.FunctionDefs)
		fmt.Println(prettyPrint(b))
	}

	if wantAll || wantCode {
		var payload interface{}
		if unit.Kind == movebc.KindModule {
			codeUnits := make([]*movebc.CodeUnit, 0, len(unit.Module.FunctionDefs))
			for _, fd := range unit.Module.FunctionDefs {
				if fd.Code != nil {
					codeUnits = append(codeUnits, fd.Code)
				}
			}
			payload = codeUnits
		} else {
			payload = unit.Script.Code
		}
		b, _ := json.Marshal(payload)
		fmt.Println(prettyPrint(b))
	}
}

func dump(cmd *cobra.Command, args []string) {
	path := args[0]

	if !isDirectory(path) {
		dumpOne(path, cmd)
		return
	}

	var files []string
	filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err == nil && !isDirectory(p) {
			files = append(files, p)
		}
		return nil
	})
	for _, f := range files {
		dumpOne(f, cmd)
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "movebcdump",
		Short: "A Move VM bytecode binary dumper",
		Long:  "Decodes compiled Move modules and scripts and prints their tables as JSON",
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the supported format version range",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("format versions %d..%d\n", movebc.VersionMin, movebc.VersionMax)
		},
	}

	dumpCmd := &cobra.Command{
		Use:   "dump [file or directory]",
		Short: "Dump a compiled module or script",
		Args:  cobra.MinimumNArgs(1),
		Run:   dump,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	dumpCmd.Flags().BoolVarP(&asScript, "script", "", false, "decode input as a CompiledScript instead of a CompiledModule")
	dumpCmd.Flags().BoolVarP(&wantHandle, "handles", "", false, "dump module handles")
	dumpCmd.Flags().BoolVarP(&wantDefs, "defs", "", false, "dump function definitions (modules only)")
	dumpCmd.Flags().BoolVarP(&wantCode, "code", "", false, "dump bytecode")
	dumpCmd.Flags().BoolVarP(&wantAll, "all", "", false, "dump everything")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(dumpCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
