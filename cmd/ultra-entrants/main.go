package main

import (
	"github.com/pfrederiksen/ultra-entrants/internal/cli"
)

func main() {
	cli.Execute()
}
