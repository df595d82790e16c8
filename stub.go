package main

import (
	"github.com/bmeneg/LapwingOS/kernel"
	"github.com/bmeneg/LapwingOS/kernel/kfmt"
	"github.com/bmeneg/LapwingOS/kernel/kmain"
)

// cmdLine is filled in by the startup code with the command line the
// firmware passed in before main runs.
var cmdLine string

var errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

// main works as a trampoline for calling the actual kernel entrypoint
// (kmain.Kmain) and is intentionally defined to prevent the Go compiler from
// optimizing away the kernel code, as it is not aware of the startup code.
//
// Once the board is up the console echoes its input back. main is not
// expected to return.
func main() {
	kmain.Kmain(cmdLine).Echo(kmain.EOT)

	// Use kfmt.Panic instead of panic to prevent the compiler from
	// treating it as dead-code and eliminating it.
	kfmt.Panic(errKmainReturned)
}
