package samplesource

import "io"

// Porter is the minimal interface for a sensor node transport. The
// abstraction keeps the mux testable without real serial hardware.
type Porter interface {
	io.ReadWriter
	io.Closer
}
