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

package socket

import (
	"syscall"
	"unsafe"

	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"
)

const skfAdOffPlusKSkfAdCPU = 4294963236
const cpuIDSize = 4

// AttachCPUSteeringFilter attaches a classic BPF program that routes each
// incoming connection of a SO_REUSEPORT group to the listener whose index
// matches the handling CPU modulo groupSize.
//
//	A = raw_smp_processor_id()
//	A = A % groupSize
//	return A
func AttachCPUSteeringFilter(fd int, groupSize uint32) error {
	filter := []bpf.Instruction{
		bpf.LoadAbsolute{Off: skfAdOffPlusKSkfAdCPU, Size: cpuIDSize},
		bpf.ALUOpConstant{Op: bpf.ALUOpMod, Val: groupSize},
		bpf.RetA{},
	}

	assembled, err := bpf.Assemble(filter)
	if err != nil {
		return err
	}

	program := unix.SockFprog{
		Len:    uint16(len(assembled)),
		Filter: (*unix.SockFilter)(unsafe.Pointer(&assembled[0])),
	}
	b := (*[unix.SizeofSockFprog]byte)(unsafe.Pointer(&program))[:unix.SizeofSockFprog]

	if _, _, errno := syscall.Syscall6(syscall.SYS_SETSOCKOPT,
		uintptr(fd), uintptr(syscall.SOL_SOCKET), uintptr(unix.SO_ATTACH_REUSEPORT_CBPF),
		uintptr(unsafe.Pointer(&b[0])), uintptr(len(b)), 0); errno != 0 {
		return errno
	}

	return nil
}
