package main

import "github.com/cgc-labs/marketd/internal/cli"

func main() {
	cli.Execute()
}
