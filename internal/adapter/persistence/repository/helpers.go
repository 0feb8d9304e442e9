package repository

import (
	"errors"
	"os"
)

var errDuplicatePayment = errors.New("payment id or hash already exists")

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
