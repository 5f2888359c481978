// Package retry provides the bounded fixed-delay retry protocol used for
// every deployment-facing external tool call.
package retry

import (
	"fmt"
	"time"

	"github.com/h3ow3d/whacdamole/internal/log"
)

// Sleep is a package-level variable so tests can run the protocol without
// real delays.
var Sleep = time.Sleep

// Do invokes op until it succeeds, up to attempts times, waiting delay
// between consecutive attempts. It returns nil on the first success and the
// last error once the attempt budget is exhausted. desc names the operation
// in status lines.
func Do(attempts int, delay time.Duration, desc string, op func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: retry budget must be at least 1 attempt", desc)
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		log.Warnf("%s failed (attempt %d/%d), retrying in %s: %v", desc, attempt, attempts, delay, err)
		Sleep(delay)
	}
	return fmt.Errorf("%s: giving up after %d attempts: %w", desc, attempts, err)
}
