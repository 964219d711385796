// Command hbasim runs remote device lifecycle scenarios on a simulated SAS
// host bus adapter.
package main

import (
	"github.com/tebeka/atexit"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
