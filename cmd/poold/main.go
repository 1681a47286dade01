package main

import (
	"context"
	"os"

	"github.com/ciro-network/ciro/cmd/poold/cmd"
)

func main() {
	rootCmd := cmd.NewRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
