// Entrypoint for the Cobra CLI; handling lives in cmd/root.go.

package main

import (
	"github.com/inference-sim/faas-sim/cmd"
)

func main() {
	cmd.Execute()
}
