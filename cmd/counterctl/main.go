// counterctl drives the Lock counter contract on the orderly L2.
//
// It loads the network entry from the environment (and .env), sends a
// batch of inc() transactions and reports how far the counter moved.
package main

import "github.com/Siasom1/orderly-counter/cmd/counterctl/cmd"

func main() {
	cmd.Execute()
}
