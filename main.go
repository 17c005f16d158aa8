package main

import (
	"os"

	"github.com/luminancehdr/hdr-batch/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
