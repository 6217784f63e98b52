// Package cmem drives a contiguous-memory character device.
//
// The device node (DefaultPath unless configured) speaks a small ioctl
// protocol:
//
//	CMEM_IOC_ALLOC  _IOWR('c', 1, struct request)  size in, phys and token out
//	CMEM_IOC_FREE   _IOW('c', 2, struct request)   token and phys in
//
// where request is three native-endian uint64 fields {size, phys, token}.
// A block is made addressable by mapping the device node itself at
// offset == phys. ENOMEM and ENOSPC from the allocate ioctl are reported as
// device.ErrExhausted so the pool can recycle idle buffers and retry.
//
// The driver is only built on Linux; elsewhere Open reports
// device.ErrUnsupported.
package cmem

// DefaultPath is the conventional device node.
const DefaultPath = "/dev/cmem"
