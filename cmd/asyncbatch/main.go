// Command asyncbatch runs a command once per input line through a batch
// engine with bounded concurrency and rate limiting.
package main

import (
	"fmt"
	"os"

	"github.com/MasterOfBinary/asyncbatch/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
