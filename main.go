package main

import "github.com/prismforge/gpubuild/cmd"

func main() {
	cmd.Execute()
}
