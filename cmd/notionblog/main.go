package main

import (
	"os"

	"github.com/ppiankov/notionblog/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
