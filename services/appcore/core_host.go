//go:build !(rp2040 || rp2350)

package appcore

import "runtime"

// SecondCore runs the entry on its own OS thread.
func SecondCore() Core {
	return CoreFunc(func(entry func()) error {
		go func() {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			entry()
		}()
		return nil
	})
}
