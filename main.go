package main

import "github.com/icco/tubular/cmd"

func main() {
	cmd.Execute()
}
