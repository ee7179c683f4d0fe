// Copyright (c) 2023 Paweł Gaczyński
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package uring

import (
	"net"
	"syscall"
	"unsafe"

	"github.com/pawelgaczynski/uring/iouring"
	uringErrors "github.com/pawelgaczynski/uring/pkg/errors"
	"golang.org/x/sys/unix"
)

// Request describes one asynchronous operation. It is acquired from a Ring,
// configured with exactly one Prepare call, and handed to the kernel by
// Ring.Submit. From submission until its completion is acknowledged the Ring
// pins the Request, so the caller may drop its own reference without
// invalidating buffers the kernel still writes to.
//
// Re-preparing an unsubmitted Request is allowed and releases the previous
// buffer. Preparing a Request that is already in flight corrupts the
// submission queue slot and is rejected.
type Request struct {
	ring       *Ring
	entry      *iouring.SubmissionQueueEntry
	completion *Completion

	buffer bufferSlot
	data   any

	token     uint64
	fd        int
	opCode    uint8
	prepared  bool
	submitted bool
}

// Token returns the stable identity of this Request. It tags the submission
// queue entry at submit time and is the value cancel and timeout-remove
// operations use to address this Request inside the kernel.
func (req *Request) Token() uint64 {
	return req.token
}

// Fd returns the target descriptor of the prepared operation, or -1 when the
// operation has none.
func (req *Request) Fd() int {
	return req.fd
}

// OpCode returns the raw opcode recorded by the last Prepare call. Only
// meaningful once the request is prepared.
func (req *Request) OpCode() uint8 {
	return req.opCode
}

// SetUserData attaches an arbitrary caller value to the Request. It is
// retrievable from the Request's Completion.
func (req *Request) SetUserData(data any) {
	req.data = data
}

func (req *Request) UserData() any {
	return req.data
}

func (req *Request) guardPrepare() error {
	if req.submitted {
		return uringErrors.ErrRequestAlreadySubmitted
	}

	return nil
}

func (req *Request) setOp(opCode uint8, fd int) {
	req.opCode = opCode
	req.fd = fd
	req.prepared = true
}

// PrepareNop prepares a no-op. It carries no buffer and always completes
// with a zero result.
func (req *Request) PrepareNop() error {
	if err := req.guardPrepare(); err != nil {
		return err
	}

	req.buffer.release()
	req.entry.PrepareNop()
	req.setOp(iouring.OpNop, -1)

	return nil
}

// PrepareRead prepares a read(2) of up to length bytes from fd at offset
// into a buffer owned by this layer. The decoded result is the buffer
// truncated to the number of bytes actually read.
func (req *Request) PrepareRead(fd int, length int, offset uint64) error {
	if err := req.guardPrepare(); err != nil {
		return err
	}
	if length < 0 {
		return uringErrors.ErrorNegativeLength(length)
	}

	buffer := make([]byte, length)
	req.buffer.attachOwned(buffer)
	req.entry.PrepareRead(fd, sliceAddr(buffer), uint32(length), offset)
	req.setOp(iouring.OpRead, fd)

	return nil
}

// PrepareWrite prepares a write(2) of data to fd at offset. The data slice
// is borrowed: the caller must keep it unchanged until the operation
// completes.
func (req *Request) PrepareWrite(fd int, data []byte, offset uint64) error {
	if err := req.guardPrepare(); err != nil {
		return err
	}

	req.buffer.attachBorrowed(data)
	req.entry.PrepareWrite(fd, sliceAddr(data), uint32(len(data)), offset)
	req.setOp(iouring.OpWrite, fd)

	return nil
}

// PrepareSend prepares a send(2) of data to the socket fd. The data slice is
// borrowed for the duration of the operation.
func (req *Request) PrepareSend(fd int, data []byte, flags uint32) error {
	if err := req.guardPrepare(); err != nil {
		return err
	}

	req.buffer.attachBorrowed(data)
	req.entry.PrepareSend(fd, sliceAddr(data), uint32(len(data)), flags)
	req.setOp(iouring.OpSend, fd)

	return nil
}

// PrepareRecv prepares a recv(2) of up to length bytes from the socket fd
// into a buffer owned by this layer.
func (req *Request) PrepareRecv(fd int, length int, flags uint32) error {
	if err := req.guardPrepare(); err != nil {
		return err
	}
	if length < 0 {
		return uringErrors.ErrorNegativeLength(length)
	}

	buffer := make([]byte, length)
	req.buffer.attachOwned(buffer)
	req.entry.PrepareRecv(fd, sliceAddr(buffer), uint32(length), flags)
	req.setOp(iouring.OpRecv, fd)

	return nil
}

// PrepareConnect prepares a connect(2) of the socket fd to address:port.
// Only IPv4 addresses are supported. The sockaddr is encoded into a buffer
// owned by this layer so it outlives the caller's frame.
func (req *Request) PrepareConnect(fd int, address string, port int) error {
	if err := req.guardPrepare(); err != nil {
		return err
	}
	if port < 0 || port > 65535 {
		return uringErrors.ErrorInvalidPort(port)
	}
	ip := net.ParseIP(address)
	if ip == nil {
		return uringErrors.ErrorInvalidAddress(address)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return uringErrors.ErrUnsupportedAddressFamily
	}

	buffer := make([]byte, unix.SizeofSockaddrInet4)
	sa := (*unix.RawSockaddrInet4)(unsafe.Pointer(&buffer[0]))
	sa.Family = unix.AF_INET
	portBytes := (*[2]byte)(unsafe.Pointer(&sa.Port))
	portBytes[0] = byte(port >> 8)
	portBytes[1] = byte(port)
	copy(sa.Addr[:], ip4)

	req.buffer.attachOwned(buffer)
	req.entry.PrepareConnect(fd, sliceAddr(buffer), uint64(unix.SizeofSockaddrInet4))
	req.setOp(iouring.OpConnect, fd)

	return nil
}

// Size of the owned accept buffer: room for the peer sockaddr followed by
// its socklen field, which the kernel reads for capacity and overwrites
// with the actual length.
const acceptBufferSize = unix.SizeofSockaddrAny + int(unsafe.Sizeof(uint32(0)))

// PrepareAccept prepares an accept4(2) on the listening socket fd. The peer
// address is written into a buffer owned by this layer and is readable via
// PeerAddress once the operation completes. The decoded result is the new
// connection descriptor.
func (req *Request) PrepareAccept(fd int, flags uint32) error {
	if err := req.guardPrepare(); err != nil {
		return err
	}

	buffer := make([]byte, acceptBufferSize)
	lenPtr := (*uint32)(unsafe.Pointer(&buffer[unix.SizeofSockaddrAny]))
	*lenPtr = unix.SizeofSockaddrAny

	req.buffer.attachOwned(buffer)
	req.entry.PrepareAccept(fd, sliceAddr(buffer), uint64(uintptr(unsafe.Pointer(lenPtr))), flags)
	req.setOp(iouring.OpAccept, fd)

	return nil
}

// PeerAddress decodes the peer sockaddr captured by a completed accept into
// a textual IPv4 address and port.
func (req *Request) PeerAddress() (string, int, error) {
	if req.opCode != iouring.OpAccept || req.buffer.kind != bufferOwned {
		return "", 0, uringErrors.ErrNoPeerAddress
	}

	sa := (*unix.RawSockaddrInet4)(unsafe.Pointer(&req.buffer.owned[0]))
	if sa.Family != unix.AF_INET {
		return "", 0, uringErrors.ErrUnsupportedAddressFamily
	}

	portBytes := (*[2]byte)(unsafe.Pointer(&sa.Port))
	port := int(portBytes[0])<<8 | int(portBytes[1])

	return net.IP(sa.Addr[:]).String(), port, nil
}

// PrepareTimeout prepares a timeout operation firing after the given number
// of seconds, or once count other completions have posted, whichever comes
// first. The timespec lives in a buffer owned by this layer. A timeout that
// expires completes with -ETIME.
func (req *Request) PrepareTimeout(seconds float64, count uint32, flags uint32) error {
	if err := req.guardPrepare(); err != nil {
		return err
	}
	if seconds < 0 {
		return uringErrors.ErrInvalidTimeDuration
	}

	buffer := make([]byte, unsafe.Sizeof(syscall.Timespec{}))
	ts := (*syscall.Timespec)(unsafe.Pointer(&buffer[0]))
	ts.Sec = int64(seconds)
	ts.Nsec = int64((seconds - float64(ts.Sec)) * 1e9)

	req.buffer.attachOwned(buffer)
	req.entry.PrepareTimeout(sliceAddr(buffer), uint64(count), flags)
	req.setOp(iouring.OpTimeout, -1)

	return nil
}

// PrepareTimeoutRemove prepares an attempt to remove a previously submitted
// timeout, addressed by its submission token.
func (req *Request) PrepareTimeoutRemove(target *Request, flags uint32) error {
	if err := req.guardPrepare(); err != nil {
		return err
	}
	if target == nil {
		return uringErrors.ErrNilTargetRequest
	}

	req.buffer.release()
	req.entry.PrepareTimeoutRemove(target.Token(), flags)
	req.setOp(iouring.OpTimeoutRemove, -1)

	return nil
}

// PrepareCancel prepares an attempt to cancel a previously submitted
// operation, addressed by its submission token. Cancellation is cooperative:
// this request's own completion reports whether the target was found and
// canceled, and the target completes with -ECANCELED if it was.
func (req *Request) PrepareCancel(target *Request, flags uint32) error {
	if err := req.guardPrepare(); err != nil {
		return err
	}
	if target == nil {
		return uringErrors.ErrNilTargetRequest
	}

	req.buffer.release()
	req.entry.PrepareCancel(target.Token(), flags)
	req.setOp(iouring.OpAsyncCancel, -1)

	return nil
}

// PrepareClose prepares a close(2) of fd.
func (req *Request) PrepareClose(fd int) error {
	if err := req.guardPrepare(); err != nil {
		return err
	}

	req.buffer.release()
	req.entry.PrepareClose(fd)
	req.setOp(iouring.OpClose, fd)

	return nil
}

// PrepareOpenat prepares an openat(2) of path relative to dirFd. The
// NUL-terminated path lives in a buffer owned by this layer. The decoded
// result is the new file descriptor.
func (req *Request) PrepareOpenat(dirFd int, path string, flags uint32, mode uint32) error {
	if err := req.guardPrepare(); err != nil {
		return err
	}
	if path == "" {
		return uringErrors.ErrEmptyPath
	}

	buffer := append([]byte(path), 0)
	req.buffer.attachOwned(buffer)
	req.entry.PrepareOpenat(dirFd, sliceAddr(buffer), flags, mode)
	req.setOp(iouring.OpOpenat, dirFd)

	return nil
}
