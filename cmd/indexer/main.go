package main

import "github.com/ara-foundation/act-indexer/internal/cli"

func main() {
	cli.Execute()
}
