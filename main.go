package main

import (
	"github.com/Rongronggg9/power-profiles-daemon/internal/cmd"
)

func main() {
	cmd.Execute()
}
