package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	cmd := NewCmdExport(log)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
