// Package vm implements the embedding surface: the one
// type a host program constructs to load a bytecode module, register
// native functions, and run or single-step the mutator. Every other
// package in this module is a collaborator vm wires together; nothing
// outside vm builds a Thread, a Factory, and a GC and points them at each
// other.
//
// Grounded on runtime/runtime.go's Runtime (New/Close/RegisterHost/
// LoadComponent/LoadWASM) and runtime/host.go's HostRegistry, adapted
// from "load a WASM component, bind wazero's module instance" to "load a
// bytecode blob, bind its o_global slots".
package vm

import (
	"sync"

	"go.uber.org/zap"
)

var (
	defaultLogger     *zap.Logger
	defaultLoggerOnce sync.Once
)

// Logger returns the package-wide fallback logger used when Options.Logger
// is nil. Defaults to a no-op logger, same as engine.Logger elsewhere.
func Logger() *zap.Logger {
	defaultLoggerOnce.Do(func() {
		if defaultLogger == nil {
			defaultLogger = zap.NewNop()
		}
	})
	return defaultLogger
}
