package main

import "github.com/snapbench/snapbench/cmd"

func main() {
	cmd.Execute()
}
