package main

import (
	"github.com/meridianhq/meridian-go/cmd"
)

func main() {
	cmd.Execute()
}
