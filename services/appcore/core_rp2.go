//go:build rp2040 || rp2350

package appcore

// SecondCore schedules the entry as a goroutine. Built with -scheduler=cores
// TinyGo runs goroutines on both cores, but nothing pins this one: the
// executor and its tasks may run on either core.
func SecondCore() Core {
	return CoreFunc(func(entry func()) error {
		go entry()
		return nil
	})
}
