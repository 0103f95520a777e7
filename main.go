package main

import "crewdesk/internal/app"

// @title           crewdesk API
// @version         1.0
// @description     Team task-management backend: workload-aware assignment, approvals and time tracking.

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization

// @BasePath  /
func main() {
	app.Run()
}
