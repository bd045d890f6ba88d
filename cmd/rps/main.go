package main

import "github.com/mcoot/rpsroom/internal/cli"

func main() {
	cli.Execute()
}
