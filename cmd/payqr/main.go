package main

import "github.com/anvik-systems/payqr/cmd/payqr/cmd"

func main() {
	cmd.Execute()
}
