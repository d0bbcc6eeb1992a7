package guest

import (
	"github.com/wippyai/hostbridge/errors"
)

// ModuleName is the import module guests link against.
const ModuleName = "hostbridge"

// Exports required from a guest.
const (
	ExportHandleRequest = "handle_request"
	ExportMemory        = "memory"
)

// Host function names.
const (
	FuncResolveAttribute = "resolve_attribute"
	FuncReadHeader       = "read_header"
	FuncReadBody         = "read_body"
	FuncAppendChunk      = "append_chunk"
	FuncFlush            = "flush"
	FuncAppendAndFlush   = "append_and_flush"
	FuncSetStatus        = "set_status"
	FuncSetHeader        = "set_header"
	FuncSetPhysicalPath  = "set_physical_path"
	FuncLog              = "log"
)

// Status is a result code returned to the guest. Zero is success; every
// failure is negative so it never collides with a length.
type Status int32

const (
	StatusOK              Status = 0
	StatusAbsent          Status = -1
	StatusInvalidHandle   Status = -2
	StatusMemory          Status = -3
	StatusHostIO          Status = -4
	StatusFinalized       Status = -5
	StatusCommitted       Status = -6
	StatusInvalidArgument Status = -7
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusAbsent:
		return "absent"
	case StatusInvalidHandle:
		return "invalid_handle"
	case StatusMemory:
		return "memory"
	case StatusHostIO:
		return "host_io"
	case StatusFinalized:
		return "finalized"
	case StatusCommitted:
		return "committed"
	case StatusInvalidArgument:
		return "invalid_argument"
	default:
		return "unknown"
	}
}

// statusOf maps an adapter error to the status reported to the guest.
func statusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	switch errors.KindOf(err) {
	case errors.KindFinalized:
		return StatusFinalized
	case errors.KindCommitted:
		return StatusCommitted
	case errors.KindInvalidInput:
		return StatusInvalidArgument
	case errors.KindMemory:
		return StatusMemory
	default:
		return StatusHostIO
	}
}

// Log levels accepted by the log host function.
const (
	LevelDebug int32 = 0
	LevelInfo  int32 = 1
	LevelWarn  int32 = 2
	LevelError int32 = 3
)

// packPair encodes a flag and a 32-bit count as flag<<32 | count.
func packPair(flag bool, n int) uint64 {
	v := uint64(uint32(n))
	if flag {
		v |= 1 << 32
	}
	return v
}
