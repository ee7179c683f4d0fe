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

import "unsafe"

type bufferKind uint8

const (
	bufferNone bufferKind = iota
	bufferBorrowed
	bufferOwned
)

// bufferSlot tracks the memory backing a request's payload. A borrowed slot
// references caller-owned memory; an owned slot is allocated by this layer
// and sized to the operation. Either way the slot keeps the memory reachable
// until the request is re-prepared or reclaimed, which is what makes the raw
// pointer handed to the kernel safe for the full round trip.
type bufferSlot struct {
	kind     bufferKind
	borrowed []byte
	owned    []byte
}

// release drops whatever the slot holds. Called before attaching a new
// buffer so re-preparing a request never leaks the previous one.
func (s *bufferSlot) release() {
	s.kind = bufferNone
	s.borrowed = nil
	s.owned = nil
}

func (s *bufferSlot) attachBorrowed(buffer []byte) {
	s.release()
	s.kind = bufferBorrowed
	s.borrowed = buffer
}

func (s *bufferSlot) attachOwned(buffer []byte) {
	s.release()
	s.kind = bufferOwned
	s.owned = buffer
}

// sliceAddr returns the address of the first byte of b, or 0 for an empty
// slice. Zero-length operations pass a null pointer to the kernel.
func sliceAddr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}

	return uintptr(unsafe.Pointer(&b[0]))
}
