// Command numerai trains the tournament model, prints the per-era
// correlation and payout summaries and writes the submission file.
package main

import (
	"os"

	"github.com/YuminosukeSato/numerai/pkg/log"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		log.GetLogger().Error("numerai failed", err)
		os.Exit(1)
	}
}
