package main

import (
	"fmt"
	"os"

	"github.com/mwantia/godraft/cmd/godraft/cli"
	"github.com/mwantia/godraft/cmd/godraft/cli/files"
	"github.com/mwantia/godraft/cmd/godraft/cli/server"
)

var (
	version = "0.0.1-dev"
	commit  = "main"
)

func main() {
	info := cli.VersionInfo{
		Version: version,
		Commit:  commit,
	}
	root := cli.NewRootCommand(info)

	root.AddCommand(cli.NewVersionCommand(info))

	root.AddCommand(server.NewAgentCommand())
	root.AddCommand(server.NewConfigCommand())
	root.AddCommand(files.NewFilesCommand())

	if err := root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
