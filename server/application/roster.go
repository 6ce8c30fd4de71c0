package application

import (
	"fmt"
	"slices"
	"sync"

	"lockstep/server/domain"
)

// Player はJoinを受け付けた参加者
type Player struct {
	SessionID   domain.SessionID
	Side        domain.SideID
	Username    string
	JoinedFrame uint32
}

// Roster は勢力ごとの参加者を管理します。1勢力につき1人まで。
type Roster struct {
	mu      sync.RWMutex
	players map[domain.SideID]Player
}

func NewRoster() *Roster {
	return &Roster{
		players: make(map[domain.SideID]Player, domain.MaxSideCount),
	}
}

// Join は参加者を登録してSessionIDを払い出します。
func (r *Roster) Join(join *domain.Join, frame uint32) (Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.players[join.PlayerSide]; ok {
		return Player{}, fmt.Errorf("%w: %s held by %q", ErrSideTaken, join.PlayerSide, existing.Username)
	}
	p := Player{
		SessionID:   domain.NewSessionID(),
		Side:        join.PlayerSide,
		Username:    join.Username,
		JoinedFrame: frame,
	}
	r.players[join.PlayerSide] = p
	return p, nil
}

// Leave は勢力の参加者を外します。登録が無ければfalseを返します。
func (r *Roster) Leave(side domain.SideID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[side]; !ok {
		return false
	}
	delete(r.players, side)
	return true
}

func (r *Roster) Lookup(side domain.SideID) (Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[side]
	return p, ok
}

// Players は勢力ID昇順の参加者一覧を返します。
func (r *Roster) Players() []Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	players := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p)
	}
	slices.SortFunc(players, func(a, b Player) int {
		return int(a.Side) - int(b.Side)
	})
	return players
}
