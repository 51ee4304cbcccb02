package main

import "github.com/fulmenhq/prekit/cmd"

func main() {
	cmd.Execute()
}
