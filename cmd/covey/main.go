package main

import "github.com/mcoot/coveytown-go/internal/cli"

func main() {
	cli.Execute()
}
