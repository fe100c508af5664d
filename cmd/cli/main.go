package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/toolshelf/internal/server/admincli"
)

func main() {
	cmd := admincli.NewRootCmd(os.Stdin, os.Stdout, os.LookupEnv)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
