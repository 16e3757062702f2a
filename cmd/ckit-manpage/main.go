package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/ckit-sh/ckit/cmd/ckit"
	"github.com/ckit-sh/ckit/internal/version"
)

func main() {
	rootCmd := ckit.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "CKIT",
		Section: "1",
		Source:  "ckit " + version.Version,
		Manual:  "ckit manual",
	}

	if err := doc.GenMan(rootCmd, header, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
