// Package main is the entry point for invops, the inventory data-maintenance CLI.
package main

import (
	"inventoryops/cli/cmd"
)

func main() {
	cmd.Execute()
}
