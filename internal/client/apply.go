package client

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"bqclient/internal/persistence/indexdb"
	"bqclient/internal/protocol"
	"bqclient/internal/sim/world"
)

// HandleFrame validates, decodes and applies one inbound frame. A frame
// that fails validation or reports success=false is discarded whole.
func (s *Session) HandleFrame(raw []byte) {
	now := s.now()
	s.meter.Inbound(now, len(raw))

	if s.validator != nil {
		if err := s.validator.Validate(raw); err != nil {
			s.reject(err)
			return
		}
	}
	b, err := protocol.DecodeBatch(raw)
	if err != nil {
		s.reject(err)
		return
	}
	if s.trace != nil {
		if err := s.trace.WriteInbound(s.tick, now.UnixMilli(), b); err != nil {
			s.log.WithError(err).Warn("trace write failed")
		}
	}
	if err := s.ApplyBatch(b); err != nil {
		s.reject(err)
	}
}

// ProtocolErrorSender marks user log lines for frames the client discarded.
const ProtocolErrorSender = "[Protocol Error]"

func (s *Session) reject(err error) {
	s.log.WithError(err).Error("inbound batch rejected")
	s.chat.Add(ProtocolErrorSender, err.Error())
	s.journal.Record(indexdb.Event{Time: s.now(), Kind: indexdb.KindServerError, Text: err.Error()})
}

// ApplyBatch applies every update in order. Tile payloads are checked up
// front so that a malformed batch changes nothing.
func (s *Session) ApplyBatch(b protocol.Batch) error {
	if !b.Success {
		s.chat.Add("[Server Error]", b.Message)
		s.journal.Record(indexdb.Event{Time: s.now(), Kind: indexdb.KindServerError, Text: b.Message})
		return nil
	}

	blocks := make(map[int][]uint8)
	for i, u := range b.CommandList {
		if u.CommandName != protocol.UpdSetTiles {
			continue
		}
		if u.Pos == nil {
			return &protocol.RejectError{Code: protocol.ErrTileBlock, Message: fmt.Sprintf("update %d: setTiles without pos", i)}
		}
		tl, err := u.Tiles()
		if err != nil {
			return fmt.Errorf("update %d: %w", i, err)
		}
		blocks[i] = tl
	}

	for i, u := range b.CommandList {
		s.apply(u, blocks[i])
	}
	return nil
}

func (s *Session) apply(u protocol.Update, tiles []uint8) {
	st := s.st
	switch u.CommandName {
	case protocol.UpdSetLocalPlayerInfo:
		s.chat.Add("", "Logged in as "+u.Username)
		st.Player.Username = u.Username
		if u.Avatar != nil {
			st.Player.Avatar = *u.Avatar
		}
		if u.BreadCount != nil {
			st.Player.Bread = *u.BreadCount
		}

	case protocol.UpdSetInventory:
		inv := make(map[uint8]int, len(u.Inventory))
		for k, n := range u.Inventory {
			id, err := strconv.Atoi(k)
			if err != nil || id < 0 || id > 255 {
				s.log.WithField("item", k).Warn("ignoring inventory entry")
				continue
			}
			inv[uint8(id)] = n
		}
		st.SetInventory(inv)

	case protocol.UpdSetRespawnPos:
		if u.RespawnPos == nil {
			return
		}
		p := world.Pos{X: u.RespawnPos.X, Y: u.RespawnPos.Y}
		st.RespawnPos = &p
		s.chat.Add("", fmt.Sprintf("Respawn pos [%d, %d]", p.X, p.Y))

	case protocol.UpdSetLocalPlayerPos:
		if u.Pos == nil {
			return
		}
		p := world.Pos{X: u.Pos.X, Y: u.Pos.Y}
		s.log.WithFields(logrus.Fields{"from": st.Player.Predicted, "to": p}).Debug("position corrected")
		st.Player.Correct(p)
		s.ex.TouchGate(s.now())

	case protocol.UpdRemoveAllEntities:
		st.Entities.RemoveAll()

	case protocol.UpdRemoveAllOnlinePlayers:
		st.OnlinePlayers = st.OnlinePlayers[:0]

	case protocol.UpdSetTiles:
		if err := st.Store.ApplyBlock(u.Pos.X, u.Pos.Y, u.Size, tiles); err != nil {
			s.log.WithError(err).Warn("setTiles")
		}

	case protocol.UpdAddChatMessage:
		s.chat.Add(u.Username, u.Text)
		s.journal.Record(indexdb.Event{Time: s.now(), Kind: indexdb.KindChat, Actor: u.Username, Text: u.Text})
		if s.now().Sub(s.start) > s.tune.NotifyGrace() {
			s.notify(NoticeChat, u.Text)
		}

	case protocol.UpdAddOnlinePlayer:
		st.OnlinePlayers = append(st.OnlinePlayers, u.Username)

	case protocol.UpdSetStats:
		if u.IsInvincible != nil {
			st.Player.Invincible = *u.IsInvincible
		}
		if u.Health == nil {
			return
		}
		h := *u.Health
		if h < st.Player.Health {
			s.journal.Record(indexdb.Event{Time: s.now(), Kind: indexdb.KindDamage, Health: h})
			s.notify(NoticeDamage, "Took damage!")
		}
		st.Player.Health = h

	case protocol.UpdAddEntity:
		if u.EntityInfo == nil {
			return
		}
		e := u.EntityInfo
		st.Entities.Add(world.Entity{
			Kind:     world.Kind(e.ClassName),
			Pos:      world.Pos{X: e.Pos.X, Y: e.Pos.Y},
			Username: e.Username,
			Avatar:   e.Avatar,
		})

	default:
		s.log.WithField("command", u.CommandName).Debug("ignoring unknown update")
	}
}
