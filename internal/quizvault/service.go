package quizvault

import (
	"time"

	"github.com/domino14/quizvault/config"
)

type nower interface {
	Now() time.Time
}

type RealNower struct{}

func (r RealNower) Now() time.Time {
	return time.Now()
}

// Service implements the scheduler operations on top of a Store. It holds
// no per-user state; everything is loaded per call.
type Service struct {
	Config *config.Config
	Store  Store
	Nower  nower
}

func NewService(cfg *config.Config, store Store) *Service {
	return &Service{Config: cfg, Store: store, Nower: RealNower{}}
}
