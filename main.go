package main

import "github.com/qgatssdev/nika/cmd"

func main() {
	cmd.Execute()
}
