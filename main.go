package main

import "github.com/lai323/spellstr/cmd"

func main() {
	cmd.Execute()
}
