package world

type Kind string

const (
	KindPlayer Kind = "Player"
	KindEnemy  Kind = "Enemy"
	KindCrack  Kind = "Crack"
)

type Entity struct {
	Kind     Kind
	Pos      Pos
	Username string
	Avatar   int
}

// Entities is the transient entity list. It is rebuilt wholesale on
// authoritative remove-all and appended to on add; the local player and the
// locally predicted crack are tracked outside the list and survive rebuilds.
type Entities struct {
	list []Entity
}

func (e *Entities) Add(ent Entity) { e.list = append(e.list, ent) }

func (e *Entities) RemoveAll() { e.list = e.list[:0] }

func (e *Entities) Len() int { return len(e.list) }

func (e *Entities) All() []Entity { return e.list }

// Hazards returns the positions of every enemy.
func (e *Entities) Hazards() []Pos {
	var out []Pos
	for _, ent := range e.list {
		if ent.Kind == KindEnemy {
			out = append(out, ent.Pos)
		}
	}
	return out
}

// Player is the local player. Predicted moves ahead of the server on every
// walk; Confirmed only changes on an authoritative correction, which also
// overwrites Predicted.
type Player struct {
	Username   string
	Avatar     int
	Bread      int
	Health     int
	Invincible bool

	Predicted Pos
	Confirmed Pos
}

// Correct applies an authoritative position.
func (p *Player) Correct(pos Pos) {
	p.Confirmed = pos
	p.Predicted = pos
}
