package main

import (
	"log"

	"github.com/DhavalSuthar-24/bookmytickets/cmd"
)

func main() {
	if err := cmd.Start(); err != nil {
		log.Fatal(err)
	}
}
