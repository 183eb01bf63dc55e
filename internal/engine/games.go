package engine

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/alanyoungcy/betcore/internal/domain"
)

// HandleGameCreated resolves the game's off-chain descriptor and builds the
// game together with its taxonomy (sport hub, sport, country, league) and
// participants. A descriptor fetch failure abandons the event; no partial
// game is left behind.
func (e *Engine) HandleGameCreated(ctx context.Context, ev *domain.GameCreatedEvent) error {
	pool, err := e.pool(ctx, ev.Meta.ContractAddress)
	if err != nil {
		return err
	}

	md, err := e.readers.Metadata.FetchGame(ctx, ev.MetadataHash)
	if err != nil {
		return fmt.Errorf("engine: game created: metadata %s: %w", ev.MetadataHash, err)
	}

	gameNum := ev.GameID
	if gameNum == nil {
		gameNum = md.GameID
	}
	if gameNum == nil {
		return fmt.Errorf("engine: game created: no game id in event or metadata %s", ev.MetadataHash)
	}

	gameID := domain.GameEntityID(pool.ID, gameNum.String())
	if _, err := e.store.GetGame(ctx, gameID); err == nil {
		return fmt.Errorf("engine: game %s: %w", gameID, domain.ErrAlreadyExists)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	sport, err := e.ensureSport(ctx, md.SportID)
	if err != nil {
		return err
	}

	countryID := domain.CountryEntityID(sport.ID, md.CountryName)
	country, err := e.store.GetCountry(ctx, countryID)
	if errors.Is(err, domain.ErrNotFound) {
		country = &domain.Country{
			ID:       countryID,
			Name:     md.CountryName,
			Slug:     toSlug(md.CountryName),
			SportID:  sport.ID,
			Turnover: new(big.Int),
		}
		err = e.store.PutCountry(ctx, country)
	}
	if err != nil {
		return fmt.Errorf("engine: game created: country %s: %w", countryID, err)
	}

	leagueID := domain.LeagueEntityID(countryID, md.LeagueName)
	league, err := e.store.GetLeague(ctx, leagueID)
	if errors.Is(err, domain.ErrNotFound) {
		league = &domain.League{
			ID:        leagueID,
			Name:      md.LeagueName,
			Slug:      toSlug(md.LeagueName),
			CountryID: countryID,
			Turnover:  new(big.Int),
		}
		err = e.store.PutLeague(ctx, league)
	}
	if err != nil {
		return fmt.Errorf("engine: game created: league %s: %w", leagueID, err)
	}

	names := make([]string, len(md.Participants))
	for i, p := range md.Participants {
		names[i] = p.Name
	}
	title := strings.Join(names, " - ")

	ts := ev.Meta.Block.Timestamp
	game := &domain.Game{
		ID:                    gameID,
		GameID:                gameNum,
		LiquidityPoolID:       pool.ID,
		LeagueID:              leagueID,
		SportID:               sport.ID,
		Title:                 title,
		Slug:                  toSlug(title),
		Provider:              md.Provider,
		Status:                domain.GameStatusCreated,
		Turnover:              new(big.Int),
		StartsAt:              ev.StartsAt,
		MetadataHash:          ev.MetadataHash,
		CreatedTxHash:         ev.Meta.TxHash,
		CreatedBlockNumber:    ev.Meta.Block.Number,
		CreatedBlockTimestamp: ts,
		UpdatedAt:             ts,
	}
	if err := e.store.PutGame(ctx, game); err != nil {
		return err
	}

	for i, p := range md.Participants {
		part := &domain.Participant{
			ID:        domain.ParticipantEntityID(gameID, strconv.Itoa(i)),
			GameID:    gameID,
			Name:      p.Name,
			Image:     p.Image,
			SortOrder: i,
		}
		if err := e.store.PutParticipant(ctx, part); err != nil {
			return err
		}
	}

	return e.audit(ctx, ev.Meta, "GameCreated", "gameId", gameNum.String())
}

// HandleGameShifted updates the game's start time.
func (e *Engine) HandleGameShifted(ctx context.Context, ev *domain.GameShiftedEvent) error {
	pool, err := e.pool(ctx, ev.Meta.ContractAddress)
	if err != nil {
		return err
	}
	gameID := domain.GameEntityID(pool.ID, ev.GameID.String())
	game, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("engine: game shifted: game %s: %w", gameID, err)
	}
	game.StartsAt = ev.StartsAt
	game.ShiftedTxHash = ev.Meta.TxHash
	game.UpdatedAt = ev.Meta.Block.Timestamp
	if err := e.store.PutGame(ctx, game); err != nil {
		return err
	}
	return e.audit(ctx, ev.Meta, "GameShifted", "gameId", ev.GameID.String())
}

// HandleGameCanceled marks the game canceled; its conditions are resolved or
// canceled individually by their own events.
func (e *Engine) HandleGameCanceled(ctx context.Context, ev *domain.GameCanceledEvent) error {
	pool, err := e.pool(ctx, ev.Meta.ContractAddress)
	if err != nil {
		return err
	}
	gameID := domain.GameEntityID(pool.ID, ev.GameID.String())
	game, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("engine: game canceled: game %s: %w", gameID, err)
	}
	game.Status = domain.GameStatusCanceled
	game.UpdatedAt = ev.Meta.Block.Timestamp
	if err := e.store.PutGame(ctx, game); err != nil {
		return err
	}
	return e.audit(ctx, ev.Meta, "GameCanceled", "gameId", ev.GameID.String())
}

// ensureSport resolves a sport id against the injected dictionary, creating
// the sport and its hub on first sight. Unknown ids get a generated name
// under the default hub.
func (e *Engine) ensureSport(ctx context.Context, sportID *big.Int) (*domain.Sport, error) {
	key := sportID.String()
	if sport, err := e.store.GetSport(ctx, key); err == nil {
		return sport, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	entry, ok := e.opts.Sports[key]
	if !ok {
		entry = SportEntry{Name: "Sport " + key, Hub: "sports"}
	}

	hubID := toSlug(entry.Hub)
	if _, err := e.store.GetSportHub(ctx, hubID); errors.Is(err, domain.ErrNotFound) {
		hub := &domain.SportHub{ID: hubID, Name: entry.Hub, Slug: hubID}
		if err := e.store.PutSportHub(ctx, hub); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	sport := &domain.Sport{
		ID:         key,
		SportID:    sportID,
		Name:       entry.Name,
		Slug:       toSlug(entry.Name),
		SportHubID: hubID,
	}
	if err := e.store.PutSport(ctx, sport); err != nil {
		return nil, err
	}
	return sport, nil
}

// activateGame marks the game live in its league and the league live in its
// country. Called when a game gains its first active condition.
func (e *Engine) activateGame(ctx context.Context, game *domain.Game) error {
	league, err := e.store.GetLeague(ctx, game.LeagueID)
	if err != nil {
		return fmt.Errorf("engine: activate game %s: league %s: %w", game.ID, game.LeagueID, err)
	}
	country, err := e.store.GetCountry(ctx, league.CountryID)
	if err != nil {
		return fmt.Errorf("engine: activate game %s: country %s: %w", game.ID, league.CountryID, err)
	}
	league.ActiveGameIDs = appendUnique(league.ActiveGameIDs, game.ID)
	league.HasActiveGames = true
	country.ActiveLeagueIDs = appendUnique(country.ActiveLeagueIDs, league.ID)
	country.HasActiveLeagues = true
	if err := e.store.PutLeague(ctx, league); err != nil {
		return err
	}
	return e.store.PutCountry(ctx, country)
}

// toSlug lowercases and strips a name to a url-safe hyphenated form.
func toSlug(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingDash = false
		} else {
			pendingDash = true
		}
	}
	return b.String()
}
