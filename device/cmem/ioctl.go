package cmem

// Generic Linux ioctl number layout (arm, arm64, x86, riscv):
// dir:2 | size:14 | type:8 | nr:8.
const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2

	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits
)

const (
	iocMagic   = 'c'
	requestLen = 24
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return dir<<iocDirShift | typ<<iocTypeShift | nr<<iocNRShift | size<<iocSizeShift
}

var (
	iocAlloc = ioc(iocRead|iocWrite, iocMagic, 1, requestLen)
	iocFree  = ioc(iocWrite, iocMagic, 2, requestLen)
)

// request mirrors the driver's struct; the layout must stay 24 bytes.
type request struct {
	Size  uint64
	Phys  uint64
	Token uint64
}
