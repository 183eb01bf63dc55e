package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/betcore/internal/domain"
)

// GameStore implements domain.GameStore using PostgreSQL. It covers games and
// the whole taxonomy above them (league, country, sport, hub, participants).
type GameStore struct {
	pool *pgxpool.Pool
}

// NewGameStore creates a GameStore backed by the given pool.
func NewGameStore(pool *pgxpool.Pool) *GameStore {
	return &GameStore{pool: pool}
}

const gameColumns = `
	id, game_id, liquidity_pool_id, league_id, sport_id,
	title, slug, provider, status, has_active_conditions,
	active_condition_ids, paused_condition_ids, resolved_condition_ids, canceled_condition_ids,
	turnover, starts_at, metadata_hash,
	created_tx_hash, created_block_number, created_block_timestamp,
	shifted_tx_hash,
	resolved_tx_hash, resolved_block_number, resolved_block_timestamp,
	updated_at`

// GetGame loads one game by entity id.
func (s *GameStore) GetGame(ctx context.Context, id string) (*domain.Game, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+gameColumns+` FROM games WHERE id = $1`, id)

	var (
		g                 domain.Game
		gameID, provider  *string
		turnover          *string
	)
	err := row.Scan(
		&g.ID, &gameID, &g.LiquidityPoolID, &g.LeagueID, &g.SportID,
		&g.Title, &g.Slug, &provider, &g.Status, &g.HasActiveConditions,
		&g.ActiveConditionIDs, &g.PausedConditionIDs, &g.ResolvedConditionIDs, &g.CanceledConditionIDs,
		&turnover, &g.StartsAt, &g.MetadataHash,
		&g.CreatedTxHash, &g.CreatedBlockNumber, &g.CreatedBlockTimestamp,
		&g.ShiftedTxHash,
		&g.ResolvedTxHash, &g.ResolvedBlockNumber, &g.ResolvedBlockTimestamp,
		&g.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get game %s: %w", id, err)
	}

	if g.GameID, err = parseBig(gameID); err != nil {
		return nil, err
	}
	if g.Provider, err = parseBig(provider); err != nil {
		return nil, err
	}
	if g.Turnover, err = parseBig(turnover); err != nil {
		return nil, err
	}
	return &g, nil
}

// PutGame upserts one game.
func (s *GameStore) PutGame(ctx context.Context, g *domain.Game) error {
	const query = `
		INSERT INTO games (
			id, game_id, liquidity_pool_id, league_id, sport_id,
			title, slug, provider, status, has_active_conditions,
			active_condition_ids, paused_condition_ids, resolved_condition_ids, canceled_condition_ids,
			turnover, starts_at, metadata_hash,
			created_tx_hash, created_block_number, created_block_timestamp,
			shifted_tx_hash,
			resolved_tx_hash, resolved_block_number, resolved_block_timestamp,
			updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14,
			$15, $16, $17,
			$18, $19, $20,
			$21,
			$22, $23, $24,
			$25
		)
		ON CONFLICT (id) DO UPDATE SET
			title                    = EXCLUDED.title,
			slug                     = EXCLUDED.slug,
			status                   = EXCLUDED.status,
			has_active_conditions    = EXCLUDED.has_active_conditions,
			active_condition_ids     = EXCLUDED.active_condition_ids,
			paused_condition_ids     = EXCLUDED.paused_condition_ids,
			resolved_condition_ids   = EXCLUDED.resolved_condition_ids,
			canceled_condition_ids   = EXCLUDED.canceled_condition_ids,
			turnover                 = EXCLUDED.turnover,
			starts_at                = EXCLUDED.starts_at,
			shifted_tx_hash          = EXCLUDED.shifted_tx_hash,
			resolved_tx_hash         = EXCLUDED.resolved_tx_hash,
			resolved_block_number    = EXCLUDED.resolved_block_number,
			resolved_block_timestamp = EXCLUDED.resolved_block_timestamp,
			updated_at               = EXCLUDED.updated_at`

	_, err := s.pool.Exec(ctx, query,
		g.ID, bigArg(g.GameID), g.LiquidityPoolID, g.LeagueID, g.SportID,
		g.Title, g.Slug, bigArg(g.Provider), string(g.Status), g.HasActiveConditions,
		strArr(g.ActiveConditionIDs), strArr(g.PausedConditionIDs), strArr(g.ResolvedConditionIDs), strArr(g.CanceledConditionIDs),
		bigArg(g.Turnover), g.StartsAt, g.MetadataHash,
		g.CreatedTxHash, g.CreatedBlockNumber, g.CreatedBlockTimestamp,
		g.ShiftedTxHash,
		g.ResolvedTxHash, g.ResolvedBlockNumber, g.ResolvedBlockTimestamp,
		g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: put game %s: %w", g.ID, err)
	}
	return nil
}

// GetLeague loads one league by entity id.
func (s *GameStore) GetLeague(ctx context.Context, id string) (*domain.League, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, slug, country_id, turnover, has_active_games, active_game_ids
		FROM leagues WHERE id = $1`, id)

	var (
		l        domain.League
		turnover *string
	)
	err := row.Scan(&l.ID, &l.Name, &l.Slug, &l.CountryID, &turnover, &l.HasActiveGames, &l.ActiveGameIDs)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get league %s: %w", id, err)
	}
	if l.Turnover, err = parseBig(turnover); err != nil {
		return nil, err
	}
	return &l, nil
}

// PutLeague upserts one league.
func (s *GameStore) PutLeague(ctx context.Context, l *domain.League) error {
	const query = `
		INSERT INTO leagues (id, name, slug, country_id, turnover, has_active_games, active_game_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			turnover         = EXCLUDED.turnover,
			has_active_games = EXCLUDED.has_active_games,
			active_game_ids  = EXCLUDED.active_game_ids`

	_, err := s.pool.Exec(ctx, query,
		l.ID, l.Name, l.Slug, l.CountryID, bigArg(l.Turnover), l.HasActiveGames, strArr(l.ActiveGameIDs))
	if err != nil {
		return fmt.Errorf("postgres: put league %s: %w", l.ID, err)
	}
	return nil
}

// GetCountry loads one country by entity id.
func (s *GameStore) GetCountry(ctx context.Context, id string) (*domain.Country, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, slug, sport_id, turnover, has_active_leagues, active_league_ids
		FROM countries WHERE id = $1`, id)

	var (
		c        domain.Country
		turnover *string
	)
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.SportID, &turnover, &c.HasActiveLeagues, &c.ActiveLeagueIDs)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get country %s: %w", id, err)
	}
	if c.Turnover, err = parseBig(turnover); err != nil {
		return nil, err
	}
	return &c, nil
}

// PutCountry upserts one country.
func (s *GameStore) PutCountry(ctx context.Context, c *domain.Country) error {
	const query = `
		INSERT INTO countries (id, name, slug, sport_id, turnover, has_active_leagues, active_league_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			turnover           = EXCLUDED.turnover,
			has_active_leagues = EXCLUDED.has_active_leagues,
			active_league_ids  = EXCLUDED.active_league_ids`

	_, err := s.pool.Exec(ctx, query,
		c.ID, c.Name, c.Slug, c.SportID, bigArg(c.Turnover), c.HasActiveLeagues, strArr(c.ActiveLeagueIDs))
	if err != nil {
		return fmt.Errorf("postgres: put country %s: %w", c.ID, err)
	}
	return nil
}

// GetSport loads one sport by entity id.
func (s *GameStore) GetSport(ctx context.Context, id string) (*domain.Sport, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, sport_id, name, slug, sport_hub_id FROM sports WHERE id = $1`, id)

	var (
		sp      domain.Sport
		sportID *string
	)
	err := row.Scan(&sp.ID, &sportID, &sp.Name, &sp.Slug, &sp.SportHubID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get sport %s: %w", id, err)
	}
	if sp.SportID, err = parseBig(sportID); err != nil {
		return nil, err
	}
	return &sp, nil
}

// PutSport upserts one sport.
func (s *GameStore) PutSport(ctx context.Context, sp *domain.Sport) error {
	const query = `
		INSERT INTO sports (id, sport_id, name, slug, sport_hub_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name         = EXCLUDED.name,
			slug         = EXCLUDED.slug,
			sport_hub_id = EXCLUDED.sport_hub_id`

	_, err := s.pool.Exec(ctx, query, sp.ID, bigArg(sp.SportID), sp.Name, sp.Slug, sp.SportHubID)
	if err != nil {
		return fmt.Errorf("postgres: put sport %s: %w", sp.ID, err)
	}
	return nil
}

// GetSportHub loads one sport hub by entity id.
func (s *GameStore) GetSportHub(ctx context.Context, id string) (*domain.SportHub, error) {
	row := s.pool.QueryRow(ctx, `SELECT id, name, slug FROM sport_hubs WHERE id = $1`, id)

	var h domain.SportHub
	err := row.Scan(&h.ID, &h.Name, &h.Slug)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get sport hub %s: %w", id, err)
	}
	return &h, nil
}

// PutSportHub upserts one sport hub.
func (s *GameStore) PutSportHub(ctx context.Context, h *domain.SportHub) error {
	const query = `
		INSERT INTO sport_hubs (id, name, slug)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug`

	_, err := s.pool.Exec(ctx, query, h.ID, h.Name, h.Slug)
	if err != nil {
		return fmt.Errorf("postgres: put sport hub %s: %w", h.ID, err)
	}
	return nil
}

// GetParticipant loads one participant by entity id.
func (s *GameStore) GetParticipant(ctx context.Context, id string) (*domain.Participant, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, game_id, name, image, sort_order FROM participants WHERE id = $1`, id)

	var p domain.Participant
	err := row.Scan(&p.ID, &p.GameID, &p.Name, &p.Image, &p.SortOrder)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get participant %s: %w", id, err)
	}
	return &p, nil
}

// PutParticipant upserts one participant.
func (s *GameStore) PutParticipant(ctx context.Context, p *domain.Participant) error {
	const query = `
		INSERT INTO participants (id, game_id, name, image, sort_order)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name  = EXCLUDED.name,
			image = EXCLUDED.image`

	_, err := s.pool.Exec(ctx, query, p.ID, p.GameID, p.Name, p.Image, p.SortOrder)
	if err != nil {
		return fmt.Errorf("postgres: put participant %s: %w", p.ID, err)
	}
	return nil
}
