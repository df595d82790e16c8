// Package cpu exposes the handful of processor primitives the bring-up core
// needs before any driver is running.
package cpu
