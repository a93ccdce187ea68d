// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/gesture_lock/internal/app"
	"github.com/relabs-tech/gesture_lock/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to the configuration file (built-in defaults when empty)")
	flag.Parse()

	log.Println("starting gesture-lock (mock console)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsole(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
