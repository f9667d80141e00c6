//go:build windows

package main

import "os"

// shutdownSignals stop a conversion run. Only os.Interrupt is delivered on Windows.
var shutdownSignals = []os.Signal{os.Interrupt}
