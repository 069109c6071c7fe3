// Package osthread exposes the kernel thread identity of the calling thread
// and thread-directed signal delivery.
//
// Callers must hold the calling goroutine on its thread
// ([runtime.LockOSThread]) for an id to stay meaningful.
package osthread
