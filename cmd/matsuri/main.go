package main

import (
	"os"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
