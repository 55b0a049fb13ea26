// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transfer

import (
	"fmt"

	"github.com/Thermoquad/inkling/pkg/epd"
)

// ProtocolError reports a reply other than the acknowledgment.
type ProtocolError struct {
	Step  State // the await state the reply arrived in
	Chunk int   // chunk index for AwaitChunkAck
	Reply []byte
}

func (e *ProtocolError) Error() string {
	if e.Step == AwaitChunkAck {
		return fmt.Sprintf("transfer: unexpected reply %s in %s (chunk %d)", epd.FormatBytes(e.Reply), e.Step, e.Chunk)
	}
	return fmt.Sprintf("transfer: unexpected reply %s in %s", epd.FormatBytes(e.Reply), e.Step)
}
