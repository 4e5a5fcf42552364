// Command jobbrowse browses the job aggregation API from the terminal: list
// views with URL-style filters, cached detail reads, exports and order
// submission. It can also serve a local mock of the API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
