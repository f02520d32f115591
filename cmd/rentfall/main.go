// Rentfall CLI entry point
//
// Rentfall is a declarative condition/effect rule engine for
// landlord-management simulations. Rules are YAML definitions pairing
// conditions with effects; the CLI loads them, seeds a simulated building,
// and lets you run rules and step through days.
package main

import "github.com/rentfall/rentfall/internal/presentation/cli/commands"

func main() {
	commands.Execute()
}
