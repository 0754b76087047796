package main

import (
	"fmt"
	"os"

	"github.com/nojima/litehttp-go"
)

func main() {
	if err := litehttp.Main(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
