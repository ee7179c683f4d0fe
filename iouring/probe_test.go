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

package iouring_test

import (
	"testing"

	"github.com/pawelgaczynski/uring/iouring"
	. "github.com/stretchr/testify/require"
)

func TestRegisterProbe(t *testing.T) {
	ring, err := iouring.CreateRing(16)
	NoError(t, err)

	defer func() {
		_ = ring.QueueExit()
	}()

	probe, err := ring.RegisterProbe()
	NoError(t, err)
	NotNil(t, probe)

	True(t, probe.IsSupported(iouring.OpNop))
	True(t, probe.IsSupported(iouring.OpRead))
	True(t, probe.IsSupported(iouring.OpAccept))
}

func TestIsOpSupported(t *testing.T) {
	supported, err := iouring.IsOpSupported(iouring.OpNop)
	NoError(t, err)
	True(t, supported)
}

func TestCheckAvailableFeatures(t *testing.T) {
	result, err := iouring.CheckAvailableFeatures()
	NoError(t, err)
	Contains(t, result, "IORING_OP_NOP is supported")
}
