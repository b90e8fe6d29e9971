package main

import "github.com/DarrenDanielDay/esbuild-plugin-global-api/cmd"

var version = "v0.2.0"

func main() {
	cmd.Execute(version)
}
