// cmd/palm/main.go
package main

import (
	cmd "github.com/OmarKhaled0K/PaLM-Tasks/internal/cli"
)

// main starts the palm CLI by delegating to the cobra root command.
func main() {
	cmd.Execute()
}
