// migrate applies the credential schema from embedded SQL; run with go run ./cmd/migrate.
package main

import (
	"flag"
	"fmt"
	"os"

	"devicesession/backend/internal/config"
	"devicesession/backend/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", migrate.DirectionUp, "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Read()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}

	version, dirty, err := migrate.Version(cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "migrate: read version:", err)
		os.Exit(1)
	}
	if dirty {
		fmt.Fprintf(os.Stderr, "migrate: schema version %d is dirty; fix it and force the version\n", version)
		os.Exit(1)
	}
	fmt.Printf("credential schema at version %d\n", version)
}
