package main

import (
	"github.com/acrouzet/phono/cmd"
)

func main() {
	cmd.Execute()
}
