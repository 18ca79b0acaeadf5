// Package handler orchestrates legacy execution and revocation: role check,
// signature recovery, lifecycle transition, parameter validation and the
// asset ledger call, in that order.
package handler

import (
	"context"
	"fmt"
	"math/big"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/aeviaprotocol/aevia-go/engine"
	"github.com/aeviaprotocol/aevia-go/engine/events"
	"github.com/aeviaprotocol/aevia-go/engine/helper"
	"github.com/aeviaprotocol/aevia-go/engine/ledger"
	"github.com/aeviaprotocol/aevia-go/engine/roles"
	"github.com/aeviaprotocol/aevia-go/engine/typeddata"
	"github.com/aeviaprotocol/aevia-go/engine/utils"
)

// ExecuteLegacyRequest carries the authorization fields and the owner's
// signature as submitted by an operator.
type ExecuteLegacyRequest struct {
	Legacy    engine.Legacy
	Signature []byte
}

// LegacyHandler is the authorization engine. It never holds assets; transfers
// run against the registered asset ledgers under the owner's standing
// approval.
type LegacyHandler struct {
	config *engine.Config
	domain typeddata.Domain
	roles  *roles.Registry
	store  ledger.Store
	assets map[ethcommon.Address]engine.AssetLedger
	router *events.Router
	locks  keyedMutex
}

// NewLegacyHandler creates a handler. assets maps each token contract address
// to the ledger adapter that moves value on it.
func NewLegacyHandler(
	config *engine.Config,
	registry *roles.Registry,
	store ledger.Store,
	assets map[ethcommon.Address]engine.AssetLedger,
	router *events.Router,
) *LegacyHandler {
	if assets == nil {
		assets = make(map[ethcommon.Address]engine.AssetLedger)
	}
	return &LegacyHandler{
		config: config,
		domain: typeddata.DefaultDomain(config.ChainID, config.VerifyingContract),
		roles:  registry,
		store:  store,
		assets: assets,
		router: router,
	}
}

// RegisterAssetLedger wires in the adapter for a token contract. Not safe for
// concurrent use with in-flight executions; register adapters during setup.
func (h *LegacyHandler) RegisterAssetLedger(token ethcommon.Address, assetLedger engine.AssetLedger) {
	h.assets[token] = assetLedger
}

// ExecuteLegacy redeems a legacy exactly once. Checks run cheapest first:
// caller role, then signature, then lifecycle state, then parameters, then
// the transfer itself; the record is marked executed only after the transfer
// succeeds, so a failed transfer leaves the legacy unused and retryable.
func (h *LegacyHandler) ExecuteLegacy(ctx context.Context, caller ethcommon.Address, req *ExecuteLegacyRequest) error {
	ctx, logger := helper.WithRequestLogger(ctx, "ExecuteLegacy")
	startTime := time.Now()

	if req == nil {
		return fmt.Errorf("request cannot be nil")
	}
	legacy := &req.Legacy
	logger = logger.With(
		"caller", caller.Hex(),
		"owner", legacy.From.Hex(),
		"legacy_id", legacy.LegacyID,
		"token_type", legacy.TokenType.String(),
	)
	logger.Info("legacy execution started")

	if !h.roles.IsOperator(caller) {
		err := fmt.Errorf("%w: caller %s is not an operator", engine.ErrUnauthorized, caller.Hex())
		logger.Info("legacy execution rejected", "error", err)
		return err
	}

	if err := utils.ValidateSignatureShape(req.Signature); err != nil {
		logger.Info("legacy execution rejected", "error", err)
		return err
	}
	signer, err := typeddata.RecoverSigner(h.domain, legacy, req.Signature)
	if err != nil {
		logger.Info("legacy execution rejected", "error", err)
		return err
	}
	if signer != legacy.From {
		err := fmt.Errorf("%w: recovered signer %s does not match owner %s", engine.ErrInvalidSignature, signer.Hex(), legacy.From.Hex())
		logger.Info("legacy execution rejected", "error", err)
		return err
	}

	// The per-key lock covers the state check, the transfer and the commit,
	// so exactly one of two racing calls for the same key can finalize it.
	unlock := h.locks.lock(legacy.From, legacy.LegacyID)
	defer unlock()

	state, err := h.store.State(ctx, legacy.From, legacy.LegacyID)
	if err != nil {
		return fmt.Errorf("query legacy state: %w", err)
	}
	if state != ledger.StateUnused {
		logger.Info("legacy execution rejected", "error", engine.ErrAlreadyFinalized, "state", state)
		return engine.ErrAlreadyFinalized
	}

	if err := utils.ValidateTransferParams(legacy.TokenType, legacy.TokenID, legacy.Amount); err != nil {
		logger.Info("legacy execution rejected", "error", err)
		return err
	}

	assetLedger, ok := h.assets[legacy.TokenAddress]
	if !ok {
		err := &engine.TransferFailedError{Cause: fmt.Errorf("no asset ledger registered for %s", legacy.TokenAddress.Hex())}
		logger.Error("legacy execution failed", "error", err)
		return err
	}
	if err := assetLedger.Transfer(ctx, legacy.TokenType, legacy.TokenID, legacy.Amount, legacy.From, legacy.To); err != nil {
		wrapped := &engine.TransferFailedError{Cause: err}
		logger.Error("legacy execution failed", "error", wrapped)
		return wrapped
	}

	if err := h.store.MarkExecuted(ctx, legacy.From, legacy.LegacyID); err != nil {
		return fmt.Errorf("mark legacy executed: %w", err)
	}

	if h.router != nil {
		h.router.Publish(events.NewLegacyExecuted(*legacy))
	}
	logger.Info("legacy executed", "duration", time.Since(startTime).Seconds())
	return nil
}

// RevokeLegacy withdraws the caller's own authorization. There is no third
// party revocation: the caller is the owner whose legacy is revoked. Revoking
// an already revoked legacy succeeds without effect.
func (h *LegacyHandler) RevokeLegacy(ctx context.Context, caller ethcommon.Address, legacyID *big.Int) error {
	ctx, logger := helper.WithRequestLogger(ctx, "RevokeLegacy")

	if legacyID == nil {
		return &engine.InvalidParametersError{Field: "legacyId", Reason: "must not be nil"}
	}
	logger = logger.With("owner", caller.Hex(), "legacy_id", legacyID)

	unlock := h.locks.lock(caller, legacyID)
	defer unlock()

	if err := h.store.Revoke(ctx, caller, legacyID); err != nil {
		logger.Info("legacy revocation rejected", "error", err)
		return err
	}

	if h.router != nil {
		h.router.Publish(events.NewLegacyRevoked(caller, legacyID))
	}
	logger.Info("legacy revoked")
	return nil
}

// IsLegacyRevoked reports whether the owner has revoked the legacy.
func (h *LegacyHandler) IsLegacyRevoked(ctx context.Context, owner ethcommon.Address, legacyID *big.Int) (bool, error) {
	state, err := h.store.State(ctx, owner, legacyID)
	if err != nil {
		return false, err
	}
	return state == ledger.StateRevoked, nil
}

// AddOperator grants the operator role. Admin only.
func (h *LegacyHandler) AddOperator(caller, account ethcommon.Address) error {
	return h.roles.AddOperator(caller, account)
}

// RemoveOperator revokes the operator role. Admin only.
func (h *LegacyHandler) RemoveOperator(caller, account ethcommon.Address) error {
	return h.roles.RemoveOperator(caller, account)
}

// Domain returns the EIP-712 domain this handler verifies signatures against.
func (h *LegacyHandler) Domain() typeddata.Domain {
	return h.domain
}
