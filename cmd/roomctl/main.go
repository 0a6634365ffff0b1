package main

import "github.com/mcoot/roomserver/internal/cli"

func main() {
	cli.Execute()
}
