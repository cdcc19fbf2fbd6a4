package main

import (
	"fmt"
	"os"

	app "github.com/valter-silva-au/jobwatch/internal"
	"github.com/valter-silva-au/jobwatch/internal/cli"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	cli.BasePath = app.ResolveBasePath()

	var a *app.App
	cli.Setup = func(basePath string) error {
		var err error
		a, err = app.NewApp(basePath)
		return err
	}

	err := cli.Execute()
	if a != nil {
		_ = a.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
