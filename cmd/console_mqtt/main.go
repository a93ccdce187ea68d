package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/gesture_lock/internal/app"
	"github.com/relabs-tech/gesture_lock/internal/config"
)

func main() {
	configPath := flag.String("config", "gesture_lock_config.txt", "path to the configuration file")
	flag.Parse()

	log.Println("starting gesture-lock console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
