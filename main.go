package main

import (
	"fmt"
	"os"

	"csvimport/csv-import/cmd/importfile"
	"csvimport/csv-import/cmd/root"
	"csvimport/csv-import/cmd/run"
	"csvimport/csv-import/cmd/validate"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(run.Cmd)
	root.Cmd.AddCommand(importfile.Cmd)
	root.Cmd.AddCommand(validate.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
