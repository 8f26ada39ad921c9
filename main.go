package main

import (
	"os"

	"github.com/tanpawarit/chative-tool-agent/cmd"
	_ "github.com/tanpawarit/chative-tool-agent/pkg/logger/autoload"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
