package protocol

import (
	"errors"
	"fmt"
)

const (
	// Frame could not be decoded.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	// Frame failed schema validation.
	ErrProtoSchema = "E_PROTO_SCHEMA"

	// Server reported success=false.
	ErrServer = "E_SERVER"
	// setTiles payload inconsistent with its size.
	ErrTileBlock = "E_TILE_BLOCK"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrProtoSchema:     {},
	ErrServer:          {},
	ErrTileBlock:       {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// ErrRejected matches every RejectError via errors.Is.
var ErrRejected = errors.New("inbound batch rejected")

// RejectError describes why an inbound batch was discarded as a whole.
type RejectError struct {
	Code    string
	Message string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RejectError) Is(target error) bool { return target == ErrRejected }
