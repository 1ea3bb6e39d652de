package trade

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/coinpesa/coinpesa/internal/domain/entity"
	errs "github.com/coinpesa/coinpesa/internal/domain/error"
	"github.com/coinpesa/coinpesa/internal/domain/port/core"
	"github.com/coinpesa/coinpesa/internal/domain/port/gateway"
	"github.com/coinpesa/coinpesa/internal/domain/port/persistence"
	"github.com/coinpesa/coinpesa/internal/domain/pricing"
)

// Config carries trade-level business settings
type Config struct {
	Curve         pricing.CurveParams
	FeeRate       decimal.Decimal // Commission rate per completed transaction
	MinTradeValue decimal.Decimal // Lower bound on total fiat value
	MaxTradeValue decimal.Decimal // Upper bound on total fiat value
}

// CreateTradeRequest is the input for creating a buy or sell intent
type CreateTradeRequest struct {
	UserID  uint64
	CoinID  uint64
	Kind    entity.TradeKind
	Amount  decimal.Decimal
	Funding entity.FundingSource // Buys: wallet or mpesa
	Payout  entity.FundingSource // Sells: where proceeds go
	Phone   string               // Required for mpesa funding or payout
}

// Service orchestrates trade creation and the two settlement paths: the
// synchronous wallet-funded path and the asynchronous gateway-funded path
type Service struct {
	uow          persistence.UnitOfWork
	gateway      gateway.PaymentGateway
	applier      *Applier
	reconciler   *Reconciler
	timeProvider core.TimeProvider
	logger       core.Logger
	cfg          Config
}

// NewService creates a new trade service
func NewService(
	uow persistence.UnitOfWork,
	paymentGateway gateway.PaymentGateway,
	applier *Applier,
	reconciler *Reconciler,
	timeProvider core.TimeProvider,
	logger core.Logger,
	cfg Config,
) *Service {
	return &Service{
		uow:          uow,
		gateway:      paymentGateway,
		applier:      applier,
		reconciler:   reconciler,
		timeProvider: timeProvider,
		logger:       logger,
		cfg:          cfg,
	}
}

// CreateTrade validates a trade intent, snapshots the current curve price
// and routes it to the matching settlement path. Wallet-funded trades (and
// all sells) settle synchronously in one unit of work; mpesa-funded buys
// initiate an STK push and return in stk_sent for reconciliation.
func (s *Service) CreateTrade(ctx context.Context, req CreateTradeRequest) (*entity.Transaction, error) {
	coin, err := s.uow.GetCoinRepository(ctx).GetByID(ctx, req.CoinID)
	if err != nil {
		return nil, err
	}
	if coin.TradingPaused {
		return nil, errs.ErrTradingPaused
	}
	if !req.Amount.IsPositive() {
		return nil, errs.ErrInvalidAmount
	}

	price := pricing.Price(coin.CirculatingSupply, s.cfg.Curve)
	total := req.Amount.Mul(price)
	if total.LessThan(s.cfg.MinTradeValue) || total.GreaterThan(s.cfg.MaxTradeValue) {
		return nil, fmt.Errorf("%w: value %s not in [%s, %s]",
			errs.ErrAmountOutOfRange, total.String(), s.cfg.MinTradeValue.String(), s.cfg.MaxTradeValue.String())
	}

	switch req.Kind {
	case entity.KindBuy:
		if !coin.CanMint(req.Amount) {
			return nil, errs.ErrSupplyExhausted
		}
		return s.createBuy(ctx, req, price)
	case entity.KindSell:
		return s.createSell(ctx, req, price)
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidTradeKind, req.Kind)
	}
}

func (s *Service) createBuy(ctx context.Context, req CreateTradeRequest, price decimal.Decimal) (*entity.Transaction, error) {
	txn, err := entity.NewTransaction(req.UserID, req.CoinID, entity.KindBuy,
		req.Amount, price, req.Funding, req.Phone, s.timeProvider)
	if err != nil {
		return nil, err
	}

	if req.Funding == entity.FundingWallet {
		return txn, s.settleSynchronous(ctx, txn)
	}
	return txn, s.initiatePayment(ctx, txn)
}

func (s *Service) createSell(ctx context.Context, req CreateTradeRequest, price decimal.Decimal) (*entity.Transaction, error) {
	// Sells are not gateway-funded; the seller already owns the units.
	// The mpesa choice only decides where proceeds go.
	txn, err := entity.NewTransaction(req.UserID, req.CoinID, entity.KindSell,
		req.Amount, price, entity.FundingWallet, "", s.timeProvider)
	if err != nil {
		return nil, err
	}

	if req.Payout == entity.FundingMpesa {
		phone, err := entity.NormalizePhone(req.Phone)
		if err != nil {
			return nil, err
		}
		txn.Payout = entity.FundingMpesa
		txn.PayerPhone = phone
	}

	return txn, s.settleSynchronous(ctx, txn)
}

// settleSynchronous creates, claims and settles a trade in a single atomic
// commit. No gateway is involved, but the same guarded transition and
// ledger applier run, so the invariants are identical to the async path.
func (s *Service) settleSynchronous(ctx context.Context, txn *entity.Transaction) error {
	txCtx, err := s.uow.Begin(ctx)
	if err != nil {
		return err
	}

	if err := s.uow.GetTransactionRepository(txCtx).Create(txCtx, txn); err != nil {
		_ = s.uow.Rollback(txCtx)
		return err
	}

	if err := s.applier.SettleInUnit(txCtx, txn); err != nil {
		_ = s.uow.Rollback(txCtx)
		return err
	}

	if err := s.uow.Commit(txCtx); err != nil {
		_ = s.uow.Rollback(txCtx)
		return err
	}

	s.logger.Info("Wallet-funded trade settled", map[string]any{
		"transaction_id": txn.ID,
		"user_id":        txn.UserID,
		"coin_id":        txn.CoinID,
		"kind":           txn.Kind,
		"amount":         txn.Amount.String(),
		"total_value":    txn.TotalValue.String(),
	})
	return nil
}

// initiatePayment sends the STK push for a gateway-funded buy. The pending
// record is committed before the gateway call so a fast callback can
// already find it. Exactly one outbound call; on rejection the transaction
// fails and the caller retries with a fresh one.
func (s *Service) initiatePayment(ctx context.Context, txn *entity.Transaction) error {
	repo := s.uow.GetTransactionRepository(ctx)
	if err := repo.Create(ctx, txn); err != nil {
		return err
	}

	res, err := s.gateway.Initiate(ctx, gateway.InitiateRequest{
		Phone:          txn.PayerPhone,
		Amount:         txn.TotalValue,
		TransactionRef: txn.ID,
		Description:    fmt.Sprintf("%s %s", txn.Kind, txn.Amount.String()),
	})
	if err != nil {
		if markErr := txn.MarkFailed(err.Error(), s.timeProvider); markErr == nil {
			if _, claimErr := repo.ClaimTransition(ctx, txn, entity.NonTerminalStatuses()); claimErr != nil {
				s.logger.Error("Failed to record gateway rejection", map[string]any{
					"transaction_id": txn.ID,
					"error":          claimErr.Error(),
				})
			}
		}
		s.logger.Warn("Payment initiation failed", map[string]any{
			"transaction_id": txn.ID,
			"error":          err.Error(),
		})
		return err
	}

	if err := txn.MarkStkSent(res.ExternalRef, s.timeProvider); err != nil {
		return err
	}
	if _, err := repo.ClaimTransition(ctx, txn, []entity.TransactionStatus{entity.StatusPending}); err != nil {
		return err
	}

	s.logger.Info("STK push sent", map[string]any{
		"transaction_id": txn.ID,
		"external_ref":   res.ExternalRef,
		"phone":          txn.PayerPhone,
	})

	s.reconciler.Watch(txn.ID)
	return nil
}

// GetTrade returns a transaction by id. This is the poll query: status
// alone tells the client whether to stop polling.
func (s *Service) GetTrade(ctx context.Context, id string) (*entity.Transaction, error) {
	return s.uow.GetTransactionRepository(ctx).GetByID(ctx, id)
}

// GetCoin returns a coin's aggregate state
func (s *Service) GetCoin(ctx context.Context, id uint64) (*entity.Coin, error) {
	return s.uow.GetCoinRepository(ctx).GetByID(ctx, id)
}

// ListCoins returns all coins
func (s *Service) ListCoins(ctx context.Context) ([]*entity.Coin, error) {
	return s.uow.GetCoinRepository(ctx).List(ctx)
}

// GetHoldings returns a user's positions
func (s *Service) GetHoldings(ctx context.Context, userID uint64) ([]*entity.Holding, error) {
	return s.uow.GetHoldingRepository(ctx).ListByUser(ctx, userID)
}

// GetWallet returns a user's internal fiat wallet
func (s *Service) GetWallet(ctx context.Context, userID uint64) (*entity.Wallet, error) {
	return s.uow.GetWalletRepository(ctx).GetByUserID(ctx, userID)
}

// Quote returns the current unit price for a coin from the bonding curve
func (s *Service) Quote(ctx context.Context, coinID uint64) (decimal.Decimal, error) {
	coin, err := s.uow.GetCoinRepository(ctx).GetByID(ctx, coinID)
	if err != nil {
		return decimal.Zero, err
	}
	return pricing.Price(coin.CirculatingSupply, s.cfg.Curve), nil
}
