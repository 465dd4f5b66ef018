package protocol

import (
	"encoding/json"
	"fmt"
)

// Batch is one inbound frame. When Success is false the whole frame is
// rejected and Message is shown to the user.
type Batch struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message,omitempty"`
	CommandList []Update `json:"commandList,omitempty"`
}

// Update is a single inbound mutation. Only the fields relevant to
// CommandName are set.
type Update struct {
	CommandName string `json:"commandName"`

	// setLocalPlayerInfo, addChatMessage, addOnlinePlayer
	Username   string `json:"username,omitempty"`
	Avatar     *int   `json:"avatar,omitempty"`
	BreadCount *int   `json:"breadCount,omitempty"`

	// setInventory: tile id (decimal string) -> count
	Inventory map[string]int `json:"inventory,omitempty"`

	RespawnPos *Pos `json:"respawnPos,omitempty"`

	// setLocalPlayerPos, setTiles
	Pos      *Pos  `json:"pos,omitempty"`
	Size     int   `json:"size,omitempty"`
	TileList []int `json:"tileList,omitempty"`

	Text string `json:"text,omitempty"`

	// setStats
	Health       *int  `json:"health,omitempty"`
	IsInvincible *bool `json:"isInvincible,omitempty"`

	EntityInfo *EntityInfo `json:"entityInfo,omitempty"`
}

type EntityInfo struct {
	ClassName string `json:"className"`
	Pos       Pos    `json:"pos"`
	Username  string `json:"username,omitempty"`
	Avatar    int    `json:"avatar,omitempty"`
}

func DecodeBatch(b []byte) (Batch, error) {
	var m Batch
	if err := json.Unmarshal(b, &m); err != nil {
		return m, &RejectError{Code: ErrProtoBadRequest, Message: err.Error()}
	}
	return m, nil
}

// Tiles converts a setTiles payload to tile codes, checking the square size
// and the 8-bit range.
func (u Update) Tiles() ([]uint8, error) {
	if u.Size < 0 || len(u.TileList) != u.Size*u.Size {
		return nil, &RejectError{Code: ErrTileBlock, Message: fmt.Sprintf("size=%d len=%d", u.Size, len(u.TileList))}
	}
	out := make([]uint8, len(u.TileList))
	for i, v := range u.TileList {
		if v < 0 || v > 255 {
			return nil, &RejectError{Code: ErrTileBlock, Message: fmt.Sprintf("tile %d out of range at %d", v, i)}
		}
		out[i] = uint8(v)
	}
	return out, nil
}
