// Command mulcheck runs the multiplier verification bench.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/mulcheck/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mulcheck:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
