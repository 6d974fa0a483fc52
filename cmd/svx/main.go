package main

import "github.com/dmitriid/svx/internal/cli"

func main() {
	cli.Execute()
}
