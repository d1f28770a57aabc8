package main

import "github.com/ghalamif/perftrace/internal/cli"

func main() {
	cli.Execute()
}
