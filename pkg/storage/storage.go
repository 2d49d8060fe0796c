package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/studiosim/studio-engine/pkg/event"
	"github.com/studiosim/studio-engine/pkg/market"
	"github.com/studiosim/studio-engine/pkg/sim"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Counter names for the simple persisted counter store.
const (
	CounterWeek  = "week"
	CounterYear  = "year"
	CounterMoney = "money"
)

// Storage is the engine's data-access contract: entities as whole
// documents plus a small counter store. The calculators never touch it;
// only the apply step at the worker boundary reads and writes.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Talent operations
	GetTalent(ctx context.Context, id int64) (*sim.Talent, error)
	SaveTalent(ctx context.Context, t *sim.Talent) error
	ListTalents(ctx context.Context) ([]*sim.Talent, error)

	// Scene operations
	GetScene(ctx context.Context, id int64) (*sim.Scene, error)
	SaveScene(ctx context.Context, s *sim.Scene) error
	ListScenes(ctx context.Context) ([]*sim.Scene, error)
	DeleteScene(ctx context.Context, id int64) error

	// Shooting bloc operations
	GetBloc(ctx context.Context, id int64) (*sim.ShootingBloc, error)
	SaveBloc(ctx context.Context, b *sim.ShootingBloc) error
	ListBlocs(ctx context.Context) ([]*sim.ShootingBloc, error)

	// Market group runtime state
	GetMarketState(ctx context.Context, name string) (*market.GroupState, error)
	SaveMarketState(ctx context.Context, s *market.GroupState) error

	// Pending interactive events (pause/resume tokens)
	SavePendingEvent(ctx context.Context, p *event.Pending) error
	LoadPendingEvent(ctx context.Context, token uuid.UUID) (*event.Pending, error)
	DeletePendingEvent(ctx context.Context, token uuid.UUID) error

	// Counter store for week/year/money
	GetCounter(ctx context.Context, name string) (int64, error)
	SetCounter(ctx context.Context, name string, value int64) error
	IncrCounter(ctx context.Context, name string, delta int64) (int64, error)
}
