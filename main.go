package main

import (
	"log"

	"github.com/escaladev/escala/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
