package main

import (
	"fmt"
	"os"

	"github.com/aussiebroadwan/smartlegal/internal/auth/app"
)

func main() {
	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "smartlegal: %v\n", err)
		os.Exit(1)
	}
}
