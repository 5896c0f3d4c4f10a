package main

import (
	"github.com/monover/monover/pkg/cli"
)

func main() {
	cli.Execute()
}
