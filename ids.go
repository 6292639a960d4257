package vlcbridge

import "sync/atomic"

var resourceIDs atomic.Uintptr

// nextResourceID returns a process unique id for leak tracking.
func nextResourceID() uintptr {
	return resourceIDs.Add(1)
}
