package main

import (
	"github.com/prefabtools/prefabmerge/cmd"
)

var version = "0.1.0"

func main() {
	cmd.Execute(version)
}
