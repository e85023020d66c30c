package main

import (
	_ "time/tzdata"

	"github.com/eslsoft/vocdrill/cmd"
)

func main() {
	cmd.Execute()
}
