package main

import "github.com/canopy-network/rollup-pool/cmd/cli"

func main() {
	cli.Execute()
}
