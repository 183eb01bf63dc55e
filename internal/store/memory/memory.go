// Package memory provides a map-backed EntityStore used by the dryrun mode
// and by tests. Entities are shallow-copied on both Put and Get so callers
// must write back every mutation, the same discipline the SQL store imposes.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/alanyoungcy/betcore/internal/domain"
)

var _ domain.EntityStore = (*Store)(nil)

// Store implements domain.EntityStore in process memory.
type Store struct {
	mu sync.RWMutex

	conditions   map[string]*domain.Condition
	outcomes     map[string]*domain.Outcome
	bets         map[string]*domain.Bet
	selections   map[string]*domain.Selection
	games        map[string]*domain.Game
	leagues      map[string]*domain.League
	countries    map[string]*domain.Country
	sports       map[string]*domain.Sport
	sportHubs    map[string]*domain.SportHub
	participants map[string]*domain.Participant
	fbContracts  map[string]*domain.FreebetContract
	freebets     map[string]*domain.Freebet
	pools        map[string]*domain.LiquidityPool
	poolNFTs     map[string]*domain.LiquidityPoolNFT
	poolTxs      []*domain.LiquidityPoolTransaction
	cores        map[string]*domain.CoreContract
	auditEvents  []*domain.AuditEvent
}

// New returns an empty store.
func New() *Store {
	return &Store{
		conditions:   make(map[string]*domain.Condition),
		outcomes:     make(map[string]*domain.Outcome),
		bets:         make(map[string]*domain.Bet),
		selections:   make(map[string]*domain.Selection),
		games:        make(map[string]*domain.Game),
		leagues:      make(map[string]*domain.League),
		countries:    make(map[string]*domain.Country),
		sports:       make(map[string]*domain.Sport),
		sportHubs:    make(map[string]*domain.SportHub),
		participants: make(map[string]*domain.Participant),
		fbContracts:  make(map[string]*domain.FreebetContract),
		freebets:     make(map[string]*domain.Freebet),
		pools:        make(map[string]*domain.LiquidityPool),
		poolNFTs:     make(map[string]*domain.LiquidityPoolNFT),
		cores:        make(map[string]*domain.CoreContract),
	}
}

func get[T any](s *Store, m map[string]*T, kind, id string) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("memory: %s %s: %w", kind, id, domain.ErrNotFound)
	}
	cp := *v
	return &cp, nil
}

func put[T any](s *Store, m map[string]*T, id string, v *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	m[id] = &cp
	return nil
}

func (s *Store) GetCondition(_ context.Context, id string) (*domain.Condition, error) {
	return get(s, s.conditions, "condition", id)
}

func (s *Store) PutCondition(_ context.Context, c *domain.Condition) error {
	return put(s, s.conditions, c.ID, c)
}

func (s *Store) GetOutcome(_ context.Context, id string) (*domain.Outcome, error) {
	return get(s, s.outcomes, "outcome", id)
}

func (s *Store) PutOutcome(_ context.Context, o *domain.Outcome) error {
	return put(s, s.outcomes, o.ID, o)
}

func (s *Store) GetBet(_ context.Context, id string) (*domain.Bet, error) {
	return get(s, s.bets, "bet", id)
}

func (s *Store) PutBet(_ context.Context, b *domain.Bet) error {
	return put(s, s.bets, b.ID, b)
}

func (s *Store) GetSelection(_ context.Context, id string) (*domain.Selection, error) {
	return get(s, s.selections, "selection", id)
}

func (s *Store) PutSelection(_ context.Context, sel *domain.Selection) error {
	return put(s, s.selections, sel.ID, sel)
}

func (s *Store) GetGame(_ context.Context, id string) (*domain.Game, error) {
	return get(s, s.games, "game", id)
}

func (s *Store) PutGame(_ context.Context, g *domain.Game) error {
	return put(s, s.games, g.ID, g)
}

func (s *Store) GetLeague(_ context.Context, id string) (*domain.League, error) {
	return get(s, s.leagues, "league", id)
}

func (s *Store) PutLeague(_ context.Context, l *domain.League) error {
	return put(s, s.leagues, l.ID, l)
}

func (s *Store) GetCountry(_ context.Context, id string) (*domain.Country, error) {
	return get(s, s.countries, "country", id)
}

func (s *Store) PutCountry(_ context.Context, c *domain.Country) error {
	return put(s, s.countries, c.ID, c)
}

func (s *Store) GetSport(_ context.Context, id string) (*domain.Sport, error) {
	return get(s, s.sports, "sport", id)
}

func (s *Store) PutSport(_ context.Context, sp *domain.Sport) error {
	return put(s, s.sports, sp.ID, sp)
}

func (s *Store) GetSportHub(_ context.Context, id string) (*domain.SportHub, error) {
	return get(s, s.sportHubs, "sport hub", id)
}

func (s *Store) PutSportHub(_ context.Context, h *domain.SportHub) error {
	return put(s, s.sportHubs, h.ID, h)
}

func (s *Store) GetParticipant(_ context.Context, id string) (*domain.Participant, error) {
	return get(s, s.participants, "participant", id)
}

func (s *Store) PutParticipant(_ context.Context, p *domain.Participant) error {
	return put(s, s.participants, p.ID, p)
}

func (s *Store) GetFreebetContract(_ context.Context, id string) (*domain.FreebetContract, error) {
	return get(s, s.fbContracts, "freebet contract", id)
}

func (s *Store) PutFreebetContract(_ context.Context, c *domain.FreebetContract) error {
	return put(s, s.fbContracts, c.ID, c)
}

func (s *Store) GetFreebet(_ context.Context, id string) (*domain.Freebet, error) {
	return get(s, s.freebets, "freebet", id)
}

func (s *Store) PutFreebet(_ context.Context, f *domain.Freebet) error {
	return put(s, s.freebets, f.ID, f)
}

func (s *Store) GetPool(_ context.Context, id string) (*domain.LiquidityPool, error) {
	return get(s, s.pools, "liquidity pool", id)
}

func (s *Store) PutPool(_ context.Context, p *domain.LiquidityPool) error {
	return put(s, s.pools, p.ID, p)
}

func (s *Store) GetPoolNFT(_ context.Context, id string) (*domain.LiquidityPoolNFT, error) {
	return get(s, s.poolNFTs, "liquidity pool nft", id)
}

func (s *Store) PutPoolNFT(_ context.Context, n *domain.LiquidityPoolNFT) error {
	return put(s, s.poolNFTs, n.ID, n)
}

func (s *Store) PutPoolTransaction(_ context.Context, t *domain.LiquidityPoolTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.poolTxs = append(s.poolTxs, &cp)
	return nil
}

func (s *Store) GetCoreContract(_ context.Context, id string) (*domain.CoreContract, error) {
	return get(s, s.cores, "core contract", id)
}

func (s *Store) PutCoreContract(_ context.Context, c *domain.CoreContract) error {
	return put(s, s.cores, c.ID, c)
}

func (s *Store) PutAuditEvent(_ context.Context, e *domain.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.auditEvents = append(s.auditEvents, &cp)
	return nil
}

// AuditEvents returns the handled-event log in append order.
func (s *Store) AuditEvents() []*domain.AuditEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.AuditEvent, len(s.auditEvents))
	copy(out, s.auditEvents)
	return out
}

// PoolTransactions returns the pool ledger in append order.
func (s *Store) PoolTransactions() []*domain.LiquidityPoolTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.LiquidityPoolTransaction, len(s.poolTxs))
	copy(out, s.poolTxs)
	return out
}
