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

package iouring

func (entry *SubmissionQueueEntry) prepareRW(opcode uint8, fd int, addr uintptr, length uint32, offset uint64) {
	entry.OpCode = opcode
	entry.Flags = 0
	entry.IoPrio = 0
	entry.Fd = int32(fd)
	entry.Off = offset
	entry.Addr = uint64(addr)
	entry.Len = length
	entry.OpcodeFlags = 0
	entry.UserData = 0
	entry.BufIG = 0
	entry.Personality = 0
	entry.SpliceFdIn = 0
	entry._pad2[0] = 0
	entry._pad2[1] = 0
}

func (entry *SubmissionQueueEntry) PrepareNop() {
	entry.prepareRW(OpNop, -1, 0, 0, 0)
}

func (entry *SubmissionQueueEntry) PrepareRead(fd int, buffer uintptr, nbytes uint32, offset uint64) {
	entry.prepareRW(OpRead, fd, buffer, nbytes, offset)
}

func (entry *SubmissionQueueEntry) PrepareWrite(fd int, buffer uintptr, nbytes uint32, offset uint64) {
	entry.prepareRW(OpWrite, fd, buffer, nbytes, offset)
}

func (entry *SubmissionQueueEntry) PrepareSend(
	fileDescriptor int,
	addr uintptr,
	length uint32,
	flags uint32,
) {
	entry.prepareRW(OpSend, fileDescriptor, addr, length, 0)
	entry.OpcodeFlags = flags
}

func (entry *SubmissionQueueEntry) PrepareRecv(
	fileDescriptor int,
	addr uintptr,
	length uint32,
	flags uint32,
) {
	entry.prepareRW(OpRecv, fileDescriptor, addr, length, 0)
	entry.OpcodeFlags = flags
}

func (entry *SubmissionQueueEntry) PrepareConnect(fd int, addr uintptr, addrLen uint64) {
	entry.prepareRW(OpConnect, fd, addr, 0, addrLen)
}

// PrepareAccept expects addr to point at memory the kernel may fill with the
// peer address and addrLen at the socklen field holding its size.
func (entry *SubmissionQueueEntry) PrepareAccept(fd int, addr uintptr, addrLen uint64, flags uint32) {
	entry.prepareRW(OpAccept, fd, addr, 0, addrLen)
	entry.OpcodeFlags = flags
}

func (entry *SubmissionQueueEntry) PrepareClose(fd int) {
	entry.prepareRW(OpClose, fd, 0, 0, 0)
}

// PrepareTimeout expects ts to point at a timespec that stays valid until the
// operation completes.
func (entry *SubmissionQueueEntry) PrepareTimeout(ts uintptr, count uint64, flags uint32) {
	entry.prepareRW(OpTimeout, -1, ts, 1, count)
	entry.OpcodeFlags = flags
}

// PrepareTimeoutRemove targets the timeout whose submission was tagged with
// userData.
func (entry *SubmissionQueueEntry) PrepareTimeoutRemove(userData uint64, flags uint32) {
	entry.prepareRW(OpTimeoutRemove, -1, uintptr(userData), 0, 0)
	entry.OpcodeFlags = flags
}

// PrepareCancel targets the operation whose submission was tagged with
// userData.
func (entry *SubmissionQueueEntry) PrepareCancel(userData uint64, flags uint32) {
	entry.prepareRW(OpAsyncCancel, -1, uintptr(userData), 0, 0)
	entry.OpcodeFlags = flags
}

// PrepareOpenat expects path to point at a NUL-terminated pathname that stays
// valid until the operation completes.
func (entry *SubmissionQueueEntry) PrepareOpenat(dirFd int, path uintptr, flags uint32, mode uint32) {
	entry.prepareRW(OpOpenat, dirFd, path, mode, 0)
	entry.OpcodeFlags = flags
}
