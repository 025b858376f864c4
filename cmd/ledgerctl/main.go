// Command ledgerctl runs ledger operations from the shell against the
// configured database.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/warp/clinic-ledger/generic"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 when the operator can fix the cause and 1 otherwise.
func exitCode(err error) int {
	if generic.IsClientError(err) {
		return 2
	}
	return 1
}
