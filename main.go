package main

import (
	"github.com/mbriand/linknest/cmd"
	_ "github.com/mbriand/linknest/cmd/cli"
	_ "github.com/mbriand/linknest/cmd/server"
)

func main() {
	cmd.Execute()
}
