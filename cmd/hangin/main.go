package main

import (
	"os"

	_ "time/tzdata" // daily lookups resolve IANA zones on hosts without a zoneinfo db
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
