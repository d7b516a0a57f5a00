// Command mant runs modified Attention Network Test sessions and analyzes
// their data.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/mant/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "mant:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
