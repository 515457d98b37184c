package main

import (
	"log"

	"github.com/thiagokokada/stashtree/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatalf("stashtree: %v", err)
	}
}
