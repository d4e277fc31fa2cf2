// riscctl is a command-line client for the RISC identity-risk API.
package main

import "github.com/mbd888/risc/internal/cli"

func main() {
	cli.Execute()
}
