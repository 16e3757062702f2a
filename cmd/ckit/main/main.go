package main

import (
	"fmt"
	"os"

	"github.com/ckit-sh/ckit/cmd/ckit"
	"github.com/ckit-sh/ckit/pkg/style"
)

func main() {
	rootCmd := ckit.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		renderer := style.NewRenderer(style.DetectFormat(os.Stderr))
		fmt.Fprintln(os.Stderr, renderer.RenderError(err))
		os.Exit(1)
	}
}
