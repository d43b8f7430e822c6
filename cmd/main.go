package main

import "github.com/adanyl0v/tasky/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.MustConnectPostgres()
	defer app.DisconnectPostgres()

	app.MustOpenDeviceStore()
	defer app.CloseDeviceStore()

	app.MustInitSync()
	defer app.StopSync()

	app.MustListenAndServeHTTP()
}
