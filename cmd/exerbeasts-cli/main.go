package main

import "github.com/nfrund/exerbeasts/cmd/exerbeasts-cli/cmd"

func main() {
	cmd.Execute()
}
