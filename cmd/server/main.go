package main

import (
	"github.com/dwarvesf/drain-watcher/internal/server"
)

// @title Drain Watcher API
// @version 1.0
// @description Detects stealth drains in the outgoing transactions of watched accounts.
// @BasePath /api/v1
func main() {
	server.Init()
}
