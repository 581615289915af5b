package main

import (
	"benchlink/cmd/benchlink/app"
	"k8s.io/component-base/logs"
	_ "k8s.io/component-base/logs/json/register"
	"os"
)

func main() {
	cmd := app.NewBenchlinkCmd()
	logs.InitLogs()
	defer logs.FlushLogs()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
