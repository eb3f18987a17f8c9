package core

// FlushInfo reports the per-target outcome of a flush: acks lists targets
// that acknowledged in time, timeouts lists the rest.
type FlushInfo struct {
	Acks     []string
	Timeouts []string
}

// ShutdownInfo reports the per-service outcome of a shutdown, using the
// same {acks, timeouts} shape as FlushInfo.
type ShutdownInfo struct {
	Acks     []string
	Timeouts []string
}
