//go:build !unix

package fileutil

import "os"

// Without flock the lock file only marks the critical section; writers on
// these platforms must not share a directory.
func lockExclusive(*os.File) error { return nil }

func unlock(*os.File) error { return nil }
