package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/internal/apperror"
	"github.com/fekuna/omnipos-marketplace-service/internal/auth"
	"github.com/fekuna/omnipos-marketplace-service/internal/cart"
	"github.com/fekuna/omnipos-marketplace-service/internal/database"
	"github.com/fekuna/omnipos-marketplace-service/internal/gateway"
	"github.com/fekuna/omnipos-marketplace-service/internal/logger"
	"github.com/fekuna/omnipos-marketplace-service/internal/metrics"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	"github.com/fekuna/omnipos-marketplace-service/internal/outbox"
	"github.com/fekuna/omnipos-marketplace-service/internal/sales"
	"github.com/fekuna/omnipos-marketplace-service/internal/settlement"
	"github.com/fekuna/omnipos-marketplace-service/internal/settlement/dto"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
	outcomeDuplicate = "duplicate"
	outcomeConflict  = "conflict"
	outcomePending   = "pending"
	outcomeGateway   = "gateway_error"
)

// Reasons the settlement transaction is rolled back after the gateway has
// already confirmed payment.
var (
	errLostRace    = errors.New("transaction already left pending")
	errCartSettled = errors.New("cart already settled by another transaction")
	errAmountDrift = errors.New("cart total changed since payment was initiated")
)

type engine struct {
	repo     settlement.Repository
	carts    cart.Repository
	tm       *database.TxManager
	gateways gateway.Registry
	sales    sales.Aggregator
	events   outbox.Repository
	settings settlement.Settings
	metrics  *metrics.Metrics
	logger   logger.ZapLogger
	now      func() time.Time
}

func NewEngine(
	repo settlement.Repository,
	carts cart.Repository,
	tm *database.TxManager,
	gateways gateway.Registry,
	agg sales.Aggregator,
	events outbox.Repository,
	settings settlement.Settings,
	m *metrics.Metrics,
	log logger.ZapLogger,
) settlement.Engine {
	return &engine{
		repo:     repo,
		carts:    carts,
		tm:       tm,
		gateways: gateways,
		sales:    agg,
		events:   events,
		settings: settings,
		metrics:  m,
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (e *engine) Initiate(ctx context.Context, principal *auth.Principal, input *dto.InitiateInput) (*dto.InitiateResult, error) {
	if err := principal.Require(); err != nil {
		return nil, err
	}
	if input.CartCode == "" {
		return nil, apperror.Validation("cart_code is required")
	}
	if input.RedirectURL == "" {
		return nil, apperror.Validation("redirect_url is required")
	}
	gw, err := e.gateways.Get(input.Provider)
	if err != nil {
		return nil, err
	}

	c, err := e.carts.FindByCode(ctx, input.CartCode)
	if err != nil {
		return nil, err
	}
	if c.Paid {
		return nil, apperror.NotFound("no open cart for code %q", input.CartCode)
	}
	lines, err := e.carts.PricedLines(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperror.Validation("cart %q is empty", input.CartCode)
	}

	now := e.now()
	userID := principal.UserID
	tx := &model.Transaction{
		ID:         uuid.New().String(),
		Ref:        uuid.New().String(),
		CartID:     c.ID,
		Provider:   gw.Name(),
		Amount:     model.Subtotal(lines).Add(e.settings.Tax),
		Currency:   gw.Currency(),
		Status:     model.TransactionPending,
		UserID:     &userID,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	if err := e.repo.Insert(ctx, tx); err != nil {
		return nil, err
	}

	gctx, cancel := context.WithTimeout(ctx, e.settings.GatewayTimeout)
	defer cancel()
	session, err := gw.Initiate(gctx, &gateway.PaymentRequest{
		Reference:   tx.Ref,
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		RedirectURL: input.RedirectURL,
		Description: fmt.Sprintf("Order %s", c.Code),
		Customer: gateway.Customer{
			Name:  principal.Name,
			Email: principal.Email,
			Phone: principal.Phone,
		},
	})
	e.metrics.ObserveGatewayCall(gw.Name(), "initiate", err)
	if err != nil {
		e.logger.Warn("payment initiation failed",
			zap.String("ref", tx.Ref),
			zap.String("provider", gw.Name()),
			zap.Error(err),
		)
		return nil, apperror.Gateway(err, "%s could not start the payment, please retry", gw.Name())
	}

	if session.ProviderTransactionID != "" {
		if err := e.repo.SetProviderTransactionID(ctx, tx.Ref, session.ProviderTransactionID, e.now()); err != nil {
			return nil, err
		}
	}

	e.logger.Info("payment initiated",
		zap.String("ref", tx.Ref),
		zap.String("cart_code", c.Code),
		zap.String("provider", gw.Name()),
		zap.String("amount", tx.Amount.String()),
		zap.String("currency", tx.Currency),
	)

	return &dto.InitiateResult{
		Reference:             tx.Ref,
		Amount:                tx.Amount,
		Currency:              tx.Currency,
		RedirectURL:           session.RedirectURL,
		ProviderTransactionID: session.ProviderTransactionID,
	}, nil
}

func (e *engine) GetTransaction(ctx context.Context, ref string) (*model.Transaction, error) {
	if ref == "" {
		return nil, apperror.Validation("transaction reference is required")
	}
	return e.repo.FindByRef(ctx, ref)
}

func (e *engine) Confirm(ctx context.Context, input *dto.ConfirmInput) (*dto.Settlement, error) {
	if input.Reference == "" {
		return nil, apperror.Validation("transaction reference is required")
	}

	tx, err := e.repo.FindByRef(ctx, input.Reference)
	if err != nil {
		return nil, err
	}
	if tx.Status.IsTerminal() {
		return e.priorOutcome(tx)
	}

	gw, err := e.gateways.Get(tx.Provider)
	if err != nil {
		return nil, err
	}

	// The provider id stored at initiation wins over the callback's, so a
	// callback cannot point us at some other successful payment.
	providerTxID := input.ProviderTransactionID
	if tx.ProviderTransactionID != nil && *tx.ProviderTransactionID != "" {
		providerTxID = *tx.ProviderTransactionID
	}

	log := e.logger.With(
		zap.String("ref", tx.Ref),
		zap.String("provider", tx.Provider),
		zap.String("callback_status", input.Status),
	)

	var lookup func(ctx context.Context) (*gateway.Verification, error)
	rv, byRef := gw.(gateway.ReferenceVerifier)
	switch {
	case providerTxID != "":
		lookup = func(ctx context.Context) (*gateway.Verification, error) { return gw.Verify(ctx, providerTxID) }
	case byRef:
		lookup = func(ctx context.Context) (*gateway.Verification, error) { return rv.VerifyByReference(ctx, tx.Ref) }
	default:
		// The callback alone never decides the outcome.
		log.Warn("callback without provider transaction id")
		return nil, apperror.Verification("payment %s cannot be verified without a %s transaction id", tx.Ref, tx.Provider)
	}

	gctx, cancel := context.WithTimeout(ctx, e.settings.GatewayTimeout)
	defer cancel()
	v, err := lookup(gctx)
	e.metrics.ObserveGatewayCall(gw.Name(), "verify", err)
	if err != nil {
		var rejected *gateway.RejectedError
		if errors.As(err, &rejected) {
			return e.fail(ctx, tx, providerTxID, fmt.Sprintf("provider rejected verification: %s", rejected.Message))
		}
		log.Warn("payment verification unavailable", zap.Error(err))
		e.metrics.ObserveSettlement(tx.Provider, outcomeGateway)
		return nil, apperror.Gateway(err, "could not reach %s to verify payment, please retry", tx.Provider)
	}
	if providerTxID == "" {
		providerTxID = v.ProviderTransactionID
	}

	if v.Status == gateway.StatusPending {
		e.metrics.ObserveSettlement(tx.Provider, outcomePending)
		return nil, apperror.State("payment %s is still pending at %s", tx.Ref, tx.Provider)
	}
	if reason := mismatch(tx, v); reason != "" {
		log.Warn("payment verification failed", zap.String("reason", reason))
		return e.fail(ctx, tx, providerTxID, reason)
	}

	return e.settle(ctx, tx, providerTxID, log)
}

// mismatch returns why v does not confirm tx, or "".
func mismatch(tx *model.Transaction, v *gateway.Verification) string {
	switch {
	case v.Status != gateway.StatusSuccess:
		if v.Reason != "" {
			return v.Reason
		}
		return fmt.Sprintf("provider reported status %q", v.Status)
	case !v.Amount.Equal(tx.Amount):
		return fmt.Sprintf("amount mismatch: expected %s, provider reported %s", tx.Amount, v.Amount)
	case !strings.EqualFold(v.Currency, tx.Currency):
		return fmt.Sprintf("currency mismatch: expected %s, provider reported %s", tx.Currency, v.Currency)
	case v.Reference != "" && v.Reference != tx.Ref:
		return fmt.Sprintf("reference mismatch: provider payment belongs to %q", v.Reference)
	}
	return ""
}

// settle applies a verified payment. The transaction CAS, the cart latch,
// the sales fold and the cart.paid event commit together or not at all.
func (e *engine) settle(ctx context.Context, tx *model.Transaction, providerTxID string, log logger.ZapLogger) (*dto.Settlement, error) {
	var vendorIDs []string
	var paidAt time.Time

	err := e.tm.WithinTx(ctx, func(ctx context.Context) error {
		paidAt = e.now()
		ok, err := e.repo.Complete(ctx, tx.Ref, providerTxID, paidAt)
		if err != nil {
			return err
		}
		if !ok {
			return errLostRace
		}

		userID := ""
		if tx.UserID != nil {
			userID = *tx.UserID
		}
		ok, err = e.carts.MarkPaid(ctx, tx.CartID, userID, paidAt)
		if err != nil {
			return err
		}
		if !ok {
			return errCartSettled
		}

		lines, err := e.carts.PricedLines(ctx, tx.CartID)
		if err != nil {
			return err
		}
		if !model.Subtotal(lines).Add(e.settings.Tax).Equal(tx.Amount) {
			return errAmountDrift
		}

		vendorIDs, _, err = e.sales.FoldPaidCart(ctx, tx.CartID, tx.Ref)
		if err != nil {
			return err
		}

		c, err := e.carts.FindByID(ctx, tx.CartID)
		if err != nil {
			return err
		}
		event, err := outbox.NewEvent(model.EventCartPaid, tx.CartID, &model.CartPaidPayload{
			CartID:         tx.CartID,
			CartCode:       c.Code,
			TransactionRef: tx.Ref,
			Provider:       tx.Provider,
			UserID:         userID,
			Amount:         tx.Amount,
			Currency:       tx.Currency,
			VendorIDs:      vendorIDs,
			PaidAt:         paidAt,
		})
		if err != nil {
			return err
		}
		return e.events.Insert(ctx, event)
	})

	switch {
	case errors.Is(err, errLostRace):
		current, ferr := e.repo.FindByRef(ctx, tx.Ref)
		if ferr != nil {
			return nil, ferr
		}
		return e.priorOutcome(current)
	case errors.Is(err, errCartSettled):
		if s, ferr := e.fail(ctx, tx, providerTxID, errCartSettled.Error()); !errors.Is(ferr, apperror.ErrVerification) {
			return s, ferr
		}
		e.metrics.ObserveSettlement(tx.Provider, outcomeConflict)
		return nil, apperror.Conflict("cart for transaction %s was already paid by another transaction", tx.Ref)
	case errors.Is(err, errAmountDrift):
		return e.fail(ctx, tx, providerTxID, errAmountDrift.Error())
	case err != nil:
		return nil, err
	}

	e.sales.Invalidate(ctx, vendorIDs)
	e.metrics.ObserveSettlement(tx.Provider, outcomeCompleted)
	log.Info("payment settled",
		zap.String("cart_id", tx.CartID),
		zap.String("amount", tx.Amount.String()),
		zap.Strings("vendor_ids", vendorIDs),
	)

	settled, err := e.repo.FindByRef(ctx, tx.Ref)
	if err != nil {
		return nil, err
	}
	return &dto.Settlement{Transaction: settled}, nil
}

// fail moves tx to failed and returns the VerificationError to surface. When
// another confirm finished first, its outcome is reported instead.
func (e *engine) fail(ctx context.Context, tx *model.Transaction, providerTxID, reason string) (*dto.Settlement, error) {
	ok, err := e.repo.Fail(ctx, tx.Ref, providerTxID, reason, e.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := e.repo.FindByRef(ctx, tx.Ref)
		if err != nil {
			return nil, err
		}
		return e.priorOutcome(current)
	}

	e.metrics.ObserveSettlement(tx.Provider, outcomeFailed)
	e.logger.Warn("payment failed", zap.String("ref", tx.Ref), zap.String("reason", reason))
	return nil, apperror.Verification("payment %s failed: %s", tx.Ref, reason)
}

// priorOutcome replays the result of an already terminal transaction.
func (e *engine) priorOutcome(tx *model.Transaction) (*dto.Settlement, error) {
	switch tx.Status {
	case model.TransactionCompleted:
		e.metrics.ObserveSettlement(tx.Provider, outcomeDuplicate)
		return &dto.Settlement{Transaction: tx, Duplicate: true}, nil
	case model.TransactionFailed:
		reason := "payment failed"
		if tx.FailureReason != nil {
			reason = *tx.FailureReason
		}
		return nil, apperror.Verification("payment %s failed: %s", tx.Ref, reason)
	default:
		return nil, apperror.State("transaction %s is still pending", tx.Ref)
	}
}
