package preflight

import (
	"fmt"
	"syscall"
)

// MinFileDescriptors covers the HTTP server, log files and the watcher.
const MinFileDescriptors = 256

// CheckFileDescriptors checks the open file limit.
func (c *Checker) CheckFileDescriptors() CheckResult {
	result := CheckResult{Name: "file_descriptors", Required: true}

	var limit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &limit); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("cannot read limit: %v", err)
		return result
	}

	result.Message = fmt.Sprintf("%d (minimum: %d)", limit.Cur, MinFileDescriptors)
	if limit.Cur < MinFileDescriptors {
		result.Status = StatusFail
		result.Details = fmt.Sprintf("Run 'ulimit -n %d' to raise the limit", 4*MinFileDescriptors)
		return result
	}
	result.Status = StatusPass
	return result
}
