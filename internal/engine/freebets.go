package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/alanyoungcy/betcore/internal/domain"
)

// FreebetContractSeed describes one freebet distributor known at startup.
type FreebetContractSeed struct {
	Address         string
	LiquidityPoolID string
	Name            string
	Affiliate       string
	Manager         string
}

// RegisterFreebetContract upserts a distributor entity from configuration.
func (e *Engine) RegisterFreebetContract(ctx context.Context, seed FreebetContractSeed) error {
	c := &domain.FreebetContract{
		ID:              seed.Address,
		Address:         seed.Address,
		LiquidityPoolID: seed.LiquidityPoolID,
		Name:            seed.Name,
		Affiliate:       seed.Affiliate,
		Manager:         seed.Manager,
	}
	return e.store.PutFreebetContract(ctx, c)
}

// HandleFreebetMinted records a new stake grant.
func (e *Engine) HandleFreebetMinted(ctx context.Context, ev *domain.FreebetMintedEvent) error {
	contract, err := e.store.GetFreebetContract(ctx, ev.Meta.ContractAddress)
	if err != nil {
		return fmt.Errorf("engine: freebet minted: contract %s: %w", ev.Meta.ContractAddress, err)
	}
	pool, err := e.pool(ctx, contract.LiquidityPoolID)
	if err != nil {
		return err
	}

	id := domain.FreebetEntityID(contract.Address, ev.FreebetID.String())
	if _, err := e.store.GetFreebet(ctx, id); err == nil {
		return fmt.Errorf("engine: freebet %s: %w", id, domain.ErrAlreadyExists)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	ts := ev.Meta.Block.Timestamp
	fb := &domain.Freebet{
		ID:                    id,
		FreebetID:             ev.FreebetID,
		ContractID:            contract.ID,
		ContractAddress:       contract.Address,
		ContractName:          contract.Name,
		ContractAffiliate:     contract.Affiliate,
		Owner:                 ev.Owner,
		RawAmount:             ev.Amount,
		Amount:                domain.ToDecimal(ev.Amount, pool.TokenDecimals),
		TokenDecimals:         pool.TokenDecimals,
		RawMinOdds:            ev.MinOdds,
		MinOdds:               domain.ToDecimal(ev.MinOdds, domain.VersionV2.OddsDecimals()),
		DurationTime:          ev.DurationTime,
		ExpiresAt:             ts + ev.DurationTime,
		Status:                domain.FreebetStatusCreated,
		CreatedTxHash:         ev.Meta.TxHash,
		CreatedBlockNumber:    ev.Meta.Block.Number,
		CreatedBlockTimestamp: ts,
		UpdatedAt:             ts,
	}
	if err := e.store.PutFreebet(ctx, fb); err != nil {
		return err
	}
	return e.audit(ctx, ev.Meta, "FreebetMinted", "freebetId", ev.FreebetID.String())
}

// HandleFreebetReissued restarts the grant's expiry window.
func (e *Engine) HandleFreebetReissued(ctx context.Context, ev *domain.FreebetReissuedEvent) error {
	fb, err := e.freebet(ctx, ev.Meta.ContractAddress, ev.FreebetID.String())
	if err != nil {
		return err
	}
	ts := ev.Meta.Block.Timestamp
	fb.Status = domain.FreebetStatusReissued
	fb.ExpiresAt = ts + fb.DurationTime
	fb.UpdatedAt = ts
	if err := e.store.PutFreebet(ctx, fb); err != nil {
		return err
	}
	return e.audit(ctx, ev.Meta, "FreebetReissued", "freebetId", ev.FreebetID.String())
}

// HandleFreebetRedeemed links the grant to the bet it funded; the bet's
// bettor and actor become the grant owner.
func (e *Engine) HandleFreebetRedeemed(ctx context.Context, ev *domain.FreebetRedeemedEvent) error {
	fb, err := e.freebet(ctx, ev.Meta.ContractAddress, ev.FreebetID.String())
	if err != nil {
		return err
	}
	ts := ev.Meta.Block.Timestamp
	fb.Status = domain.FreebetStatusRedeemed
	fb.CoreAddress = ev.CoreAddress
	fb.BetID = ev.BetID
	fb.UpdatedAt = ts
	if err := e.store.PutFreebet(ctx, fb); err != nil {
		return err
	}
	if err := e.linkFreebet(ctx, fb, ts); err != nil {
		return err
	}
	return e.audit(ctx, ev.Meta, "FreebetRedeemed", "freebetId", ev.FreebetID.String())
}

// HandleFreebetWithdrawn marks an unredeemed grant reclaimed by the sponsor.
func (e *Engine) HandleFreebetWithdrawn(ctx context.Context, ev *domain.FreebetWithdrawnEvent) error {
	fb, err := e.freebet(ctx, ev.Meta.ContractAddress, ev.FreebetID.String())
	if err != nil {
		return err
	}
	fb.Status = domain.FreebetStatusWithdrawn
	fb.UpdatedAt = ev.Meta.Block.Timestamp
	if err := e.store.PutFreebet(ctx, fb); err != nil {
		return err
	}
	return e.audit(ctx, ev.Meta, "FreebetWithdrawn", "freebetId", ev.FreebetID.String())
}

// HandleFreebetTransfer moves grant ownership; on a redeemed grant the
// funded bet's actor follows the new owner. Mints and burns are skipped.
func (e *Engine) HandleFreebetTransfer(ctx context.Context, ev *domain.FreebetTransferEvent) error {
	if ev.From == domain.ZeroAddress || ev.To == domain.ZeroAddress {
		return nil
	}
	fb, err := e.freebet(ctx, ev.Meta.ContractAddress, ev.FreebetID.String())
	if err != nil {
		return err
	}
	ts := ev.Meta.Block.Timestamp
	fb.Owner = ev.To
	fb.UpdatedAt = ts
	if err := e.store.PutFreebet(ctx, fb); err != nil {
		return err
	}

	if fb.Status == domain.FreebetStatusRedeemed && fb.CoreAddress != "" {
		betEntityID := domain.BetEntityID(fb.CoreAddress, fb.BetID.String())
		bet, err := e.store.GetBet(ctx, betEntityID)
		if err != nil {
			return fmt.Errorf("engine: freebet transfer: bet %s: %w", betEntityID, err)
		}
		bet.Actor = ev.To
		bet.UpdatedAt = ts
		if err := e.store.PutBet(ctx, bet); err != nil {
			return err
		}
	}
	return e.audit(ctx, ev.Meta, "FreebetTransfer", "freebetId", ev.FreebetID.String())
}

// HandleFreebetResolved closes the grant's lifecycle.
func (e *Engine) HandleFreebetResolved(ctx context.Context, ev *domain.FreebetResolvedEvent) error {
	fb, err := e.freebet(ctx, ev.Meta.ContractAddress, ev.FreebetID.String())
	if err != nil {
		return err
	}
	fb.IsResolved = true
	fb.Burned = ev.Burned
	fb.UpdatedAt = ev.Meta.Block.Timestamp
	if err := e.store.PutFreebet(ctx, fb); err != nil {
		return err
	}
	return e.audit(ctx, ev.Meta, "FreebetResolved", "freebetId", ev.FreebetID.String())
}

func (e *Engine) freebet(ctx context.Context, contractAddress, freebetID string) (*domain.Freebet, error) {
	id := domain.FreebetEntityID(contractAddress, freebetID)
	fb, err := e.store.GetFreebet(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("engine: freebet %s: %w", id, err)
	}
	return fb, nil
}
