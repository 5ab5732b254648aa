package service

import (
	"os"
	"testing"

	"node-hierarchy-go/pkg/log"
)

func TestMain(m *testing.M) {
	log.Init("info", "json", "")
	os.Exit(m.Run())
}
