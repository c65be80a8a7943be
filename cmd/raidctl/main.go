package main

import (
	"os"

	"github.com/Anthya1104/raid-engine/internal/cli"
)

func main() {
	cli.Run(os.Args[1:])
}
