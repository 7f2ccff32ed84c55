package domain

import "github.com/google/uuid"

// Player is the plain-struct Actor used by tooling and tests. Live game
// actors satisfy Actor directly.
type Player struct {
	PlayerName string
	ID         uuid.UUID
	GroupNames []string
}

func (p *Player) Name() string        { return p.PlayerName }
func (p *Player) UniqueID() uuid.UUID { return p.ID }
func (p *Player) Groups() []string    { return p.GroupNames }
