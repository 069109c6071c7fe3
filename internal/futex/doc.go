// Package futex wraps the Linux futex(2) wait and wake operations on a
// process-private 32-bit cell.
//
// On other platforms every call returns [errors.ErrUnsupported].
package futex
