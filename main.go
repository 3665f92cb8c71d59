package main

import (
	_ "embed"
	"strings"

	"github.com/quillhq/commit-journal/cmd"
)

//go:embed VERSION
var version string

func main() {
	cmd.SetVersion(strings.TrimSpace(version))
	cmd.Execute()
}
