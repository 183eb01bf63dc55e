package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/betcore/internal/domain"
)

// BetStore implements domain.BetStore using PostgreSQL.
type BetStore struct {
	pool *pgxpool.Pool
}

// NewBetStore creates a BetStore backed by the given pool.
func NewBetStore(pool *pgxpool.Pool) *BetStore {
	return &BetStore{pool: pool}
}

const betColumns = `
	id, type, bet_id, core_address,
	bettor, owner, actor, affiliate,
	raw_amount, amount, token_decimals,
	raw_odds, odds, odds_decimals,
	raw_potential_payout, potential_payout,
	raw_payout, payout,
	raw_settled_odds, settled_odds,
	sub_bets_count, won_sub_bets_count, lost_sub_bets_count, canceled_sub_bets_count,
	condition_entity_ids, game_entity_ids, condition_ids,
	status, result,
	is_redeemed, is_redeemable, is_freebet, freebet_id,
	approx_settled_at,
	created_tx_hash, created_block_number, created_block_timestamp,
	resolved_tx_hash, resolved_block_number, resolved_block_timestamp,
	redeemed_tx_hash, redeemed_block_number, redeemed_block_timestamp,
	updated_at`

// GetBet loads one bet by entity id.
func (s *BetStore) GetBet(ctx context.Context, id string) (*domain.Bet, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+betColumns+` FROM bets WHERE id = $1`, id)

	var (
		b domain.Bet

		betID, rawAmount, rawOdds              *string
		rawPotential, rawPayout, rawSettled    *string
		amount, odds, potential, payout        *string
		settledOdds                            *string
		conditionIDs                           []string
	)
	err := row.Scan(
		&b.ID, &b.Type, &betID, &b.CoreAddress,
		&b.Bettor, &b.Owner, &b.Actor, &b.Affiliate,
		&rawAmount, &amount, &b.TokenDecimals,
		&rawOdds, &odds, &b.OddsDecimals,
		&rawPotential, &potential,
		&rawPayout, &payout,
		&rawSettled, &settledOdds,
		&b.SubBetsCount, &b.WonSubBetsCount, &b.LostSubBetsCount, &b.CanceledSubBetsCount,
		&b.ConditionEntityIDs, &b.GameEntityIDs, &conditionIDs,
		&b.Status, &b.Result,
		&b.IsRedeemed, &b.IsRedeemable, &b.IsFreebet, &b.FreebetID,
		&b.ApproxSettledAt,
		&b.CreatedTxHash, &b.CreatedBlockNumber, &b.CreatedBlockTimestamp,
		&b.ResolvedTxHash, &b.ResolvedBlockNumber, &b.ResolvedBlockTimestamp,
		&b.RedeemedTxHash, &b.RedeemedBlockNumber, &b.RedeemedBlockTimestamp,
		&b.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get bet %s: %w", id, err)
	}

	if b.BetID, err = parseBig(betID); err != nil {
		return nil, err
	}
	if b.RawAmount, err = parseBig(rawAmount); err != nil {
		return nil, err
	}
	if b.RawOdds, err = parseBig(rawOdds); err != nil {
		return nil, err
	}
	if b.RawPotentialPayout, err = parseBig(rawPotential); err != nil {
		return nil, err
	}
	if b.RawPayout, err = parseBig(rawPayout); err != nil {
		return nil, err
	}
	if b.RawSettledOdds, err = parseBig(rawSettled); err != nil {
		return nil, err
	}
	if b.Amount, err = parseDec(amount); err != nil {
		return nil, err
	}
	if b.Odds, err = parseDec(odds); err != nil {
		return nil, err
	}
	if b.PotentialPayout, err = parseDec(potential); err != nil {
		return nil, err
	}
	if b.Payout, err = parseDec(payout); err != nil {
		return nil, err
	}
	if b.SettledOdds, err = parseDec(settledOdds); err != nil {
		return nil, err
	}
	if b.ConditionIDs, err = parseBigs(conditionIDs); err != nil {
		return nil, err
	}
	return &b, nil
}

// PutBet upserts one bet.
func (s *BetStore) PutBet(ctx context.Context, b *domain.Bet) error {
	const query = `
		INSERT INTO bets (
			id, type, bet_id, core_address,
			bettor, owner, actor, affiliate,
			raw_amount, amount, token_decimals,
			raw_odds, odds, odds_decimals,
			raw_potential_payout, potential_payout,
			raw_payout, payout,
			raw_settled_odds, settled_odds,
			sub_bets_count, won_sub_bets_count, lost_sub_bets_count, canceled_sub_bets_count,
			condition_entity_ids, game_entity_ids, condition_ids,
			status, result,
			is_redeemed, is_redeemable, is_freebet, freebet_id,
			approx_settled_at,
			created_tx_hash, created_block_number, created_block_timestamp,
			resolved_tx_hash, resolved_block_number, resolved_block_timestamp,
			redeemed_tx_hash, redeemed_block_number, redeemed_block_timestamp,
			updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11,
			$12, $13, $14,
			$15, $16,
			$17, $18,
			$19, $20,
			$21, $22, $23, $24,
			$25, $26, $27,
			$28, $29,
			$30, $31, $32, $33,
			$34,
			$35, $36, $37,
			$38, $39, $40,
			$41, $42, $43,
			$44
		)
		ON CONFLICT (id) DO UPDATE SET
			bettor                   = EXCLUDED.bettor,
			owner                    = EXCLUDED.owner,
			actor                    = EXCLUDED.actor,
			raw_payout               = EXCLUDED.raw_payout,
			payout                   = EXCLUDED.payout,
			raw_settled_odds         = EXCLUDED.raw_settled_odds,
			settled_odds             = EXCLUDED.settled_odds,
			won_sub_bets_count       = EXCLUDED.won_sub_bets_count,
			lost_sub_bets_count      = EXCLUDED.lost_sub_bets_count,
			canceled_sub_bets_count  = EXCLUDED.canceled_sub_bets_count,
			status                   = EXCLUDED.status,
			result                   = EXCLUDED.result,
			is_redeemed              = EXCLUDED.is_redeemed,
			is_redeemable            = EXCLUDED.is_redeemable,
			is_freebet               = EXCLUDED.is_freebet,
			freebet_id               = EXCLUDED.freebet_id,
			approx_settled_at        = EXCLUDED.approx_settled_at,
			resolved_tx_hash         = EXCLUDED.resolved_tx_hash,
			resolved_block_number    = EXCLUDED.resolved_block_number,
			resolved_block_timestamp = EXCLUDED.resolved_block_timestamp,
			redeemed_tx_hash         = EXCLUDED.redeemed_tx_hash,
			redeemed_block_number    = EXCLUDED.redeemed_block_number,
			redeemed_block_timestamp = EXCLUDED.redeemed_block_timestamp,
			updated_at               = EXCLUDED.updated_at`

	condEntityIDs := b.ConditionEntityIDs
	if condEntityIDs == nil {
		condEntityIDs = []string{}
	}
	gameEntityIDs := b.GameEntityIDs
	if gameEntityIDs == nil {
		gameEntityIDs = []string{}
	}
	_, err := s.pool.Exec(ctx, query,
		b.ID, string(b.Type), bigArg(b.BetID), b.CoreAddress,
		b.Bettor, b.Owner, b.Actor, b.Affiliate,
		bigArg(b.RawAmount), decArg(b.Amount), b.TokenDecimals,
		bigArg(b.RawOdds), decArg(b.Odds), b.OddsDecimals,
		bigArg(b.RawPotentialPayout), decArg(b.PotentialPayout),
		bigArg(b.RawPayout), decArg(b.Payout),
		bigArg(b.RawSettledOdds), decArg(b.SettledOdds),
		b.SubBetsCount, b.WonSubBetsCount, b.LostSubBetsCount, b.CanceledSubBetsCount,
		condEntityIDs, gameEntityIDs, bigsArg(b.ConditionIDs),
		string(b.Status), string(b.Result),
		b.IsRedeemed, b.IsRedeemable, b.IsFreebet, b.FreebetID,
		b.ApproxSettledAt,
		b.CreatedTxHash, b.CreatedBlockNumber, b.CreatedBlockTimestamp,
		b.ResolvedTxHash, b.ResolvedBlockNumber, b.ResolvedBlockTimestamp,
		b.RedeemedTxHash, b.RedeemedBlockNumber, b.RedeemedBlockTimestamp,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: put bet %s: %w", b.ID, err)
	}
	return nil
}

// GetSelection loads one bet leg by entity id.
func (s *BetStore) GetSelection(ctx context.Context, id string) (*domain.Selection, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, bet_id, outcome_entity_id, outcome_id,
		       raw_odds, odds, odds_decimals, result
		FROM selections WHERE id = $1`, id)

	var (
		sel              domain.Selection
		outcomeID, rawO  *string
		odds             *string
	)
	err := row.Scan(
		&sel.ID, &sel.BetID, &sel.OutcomeEntityID, &outcomeID,
		&rawO, &odds, &sel.OddsDecimals, &sel.Result,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get selection %s: %w", id, err)
	}

	if sel.OutcomeID, err = parseBig(outcomeID); err != nil {
		return nil, err
	}
	if sel.RawOdds, err = parseBig(rawO); err != nil {
		return nil, err
	}
	if sel.Odds, err = parseDec(odds); err != nil {
		return nil, err
	}
	return &sel, nil
}

// PutSelection upserts one bet leg.
func (s *BetStore) PutSelection(ctx context.Context, sel *domain.Selection) error {
	const query = `
		INSERT INTO selections (
			id, bet_id, outcome_entity_id, outcome_id,
			raw_odds, odds, odds_decimals, result
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			result = EXCLUDED.result`

	_, err := s.pool.Exec(ctx, query,
		sel.ID, sel.BetID, sel.OutcomeEntityID, bigArg(sel.OutcomeID),
		bigArg(sel.RawOdds), decArg(sel.Odds), sel.OddsDecimals, string(sel.Result),
	)
	if err != nil {
		return fmt.Errorf("postgres: put selection %s: %w", sel.ID, err)
	}
	return nil
}
