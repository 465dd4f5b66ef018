package protocol

import "encoding/json"

// Outbound command names (client -> server).
const (
	CmdStartPlaying         = "startPlaying"
	CmdGetGuidelinePos      = "getGuidelinePos"
	CmdAssertPos            = "assertPos"
	CmdGetEntities          = "getEntities"
	CmdGetTiles             = "getTiles"
	CmdGetChatMessages      = "getChatMessages"
	CmdGetOnlinePlayers     = "getOnlinePlayers"
	CmdGetInventoryChanges  = "getInventoryChanges"
	CmdGetRespawnPosChanges = "getRespawnPosChanges"
	CmdGetStats             = "getStats"
	CmdGetAvatarChanges     = "getAvatarChanges"
	CmdWalk                 = "walk"
	CmdPlaceTile            = "placeTile"
	CmdRemoveTile           = "removeTile"
	CmdCollectTile          = "collectTile"
	CmdAddChatMessage       = "addChatMessage"
)

// Inbound update names (server -> client).
const (
	UpdSetLocalPlayerInfo     = "setLocalPlayerInfo"
	UpdSetInventory           = "setInventory"
	UpdSetRespawnPos          = "setRespawnPos"
	UpdSetLocalPlayerPos      = "setLocalPlayerPos"
	UpdRemoveAllEntities      = "removeAllEntities"
	UpdRemoveAllOnlinePlayers = "removeAllOnlinePlayers"
	UpdSetTiles               = "setTiles"
	UpdAddChatMessage         = "addChatMessage"
	UpdAddOnlinePlayer        = "addOnlinePlayer"
	UpdSetStats               = "setStats"
	UpdAddEntity              = "addEntity"
)

type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Command is one outbound request. Optional fields are pointers so that a
// zero direction or tile id is still sent.
type Command struct {
	CommandName string `json:"commandName"`
	Direction   *int   `json:"direction,omitempty"`
	Tile        *int   `json:"tile,omitempty"`
	Pos         *Pos   `json:"pos,omitempty"`
	Size        *int   `json:"size,omitempty"`
	Text        string `json:"text,omitempty"`
}

func intp(v int) *int { return &v }

func Simple(name string) Command { return Command{CommandName: name} }

func Walk(dir int) Command {
	return Command{CommandName: CmdWalk, Direction: intp(dir)}
}

func PlaceTile(dir int, tile uint8) Command {
	return Command{CommandName: CmdPlaceTile, Direction: intp(dir), Tile: intp(int(tile))}
}

func RemoveTile(dir int) Command {
	return Command{CommandName: CmdRemoveTile, Direction: intp(dir)}
}

func CollectTile(dir int) Command {
	return Command{CommandName: CmdCollectTile, Direction: intp(dir)}
}

func AssertPos(x, y int) Command {
	return Command{CommandName: CmdAssertPos, Pos: &Pos{X: x, Y: y}}
}

func GetTiles(size int) Command {
	return Command{CommandName: CmdGetTiles, Size: intp(size)}
}

func AddChatMessage(text string) Command {
	return Command{CommandName: CmdAddChatMessage, Text: text}
}

// SyncRequests is the fixed set of state queries sent every tick.
func SyncRequests(x, y, tileSize int) []Command {
	return []Command{
		AssertPos(x, y),
		Simple(CmdGetEntities),
		GetTiles(tileSize),
		Simple(CmdGetChatMessages),
		Simple(CmdGetOnlinePlayers),
		Simple(CmdGetInventoryChanges),
		Simple(CmdGetRespawnPosChanges),
		Simple(CmdGetStats),
		Simple(CmdGetAvatarChanges),
	}
}

// EncodeCommands renders one outbound frame.
func EncodeCommands(cmds []Command) ([]byte, error) {
	if cmds == nil {
		cmds = []Command{}
	}
	return json.Marshal(cmds)
}
