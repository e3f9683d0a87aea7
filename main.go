package main

import (
	"vimeet/app"
	"vimeet/pkg/logging"
)

func main() {
	logging.Init()
	defer logging.Sync()

	server := app.NewServer()
	if err := server.Start(""); err != nil {
		logging.S().Fatalf("server failed: %v", err)
	}
}
