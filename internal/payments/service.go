package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"

	"bustix/internal/shared/config"
	"bustix/internal/shared/constants"
	"bustix/internal/tickets"
	"bustix/pkg/cache"
	"bustix/pkg/logger"
)

// attemptCodePattern matches the booking code buyers put in the transfer
// description
var attemptCodePattern = regexp.MustCompile(`BUS-\d{8}-[A-Z]{6}`)

// PaymentConfirmer applies a payment to a booking attempt. Satisfied by the
// tickets service.
type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, code, paymentRef string, amount float64) (*tickets.ConfirmResult, error)
}

type Service interface {
	// VerifySignature checks the HMAC-SHA256 signature over the raw body
	VerifySignature(body []byte, signature string) bool

	// HandleWebhook processes each transaction in a delivery and reports the
	// per-transaction outcomes
	HandleWebhook(ctx context.Context, payload WebhookPayload) []TransactionResult
}

type service struct {
	confirmer PaymentConfirmer
	cache     cache.Service
	cfg       *config.Config
	logger    *logger.Logger
}

func NewService(confirmer PaymentConfirmer, cacheService cache.Service, cfg *config.Config, log *logger.Logger) Service {
	return &service{
		confirmer: confirmer,
		cache:     cacheService,
		cfg:       cfg,
		logger:    log,
	}
}

func (s *service) VerifySignature(body []byte, signature string) bool {
	secret := s.cfg.Payment.WebhookSecret
	if secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

func (s *service) HandleWebhook(ctx context.Context, payload WebhookPayload) []TransactionResult {
	results := make([]TransactionResult, 0, len(payload.Data))
	for i := range payload.Data {
		results = append(results, s.handleTransaction(ctx, payload.Data[i]))
	}
	return results
}

func (s *service) handleTransaction(ctx context.Context, txn Transaction) TransactionResult {
	// Fast dedup on the bank reference. Advisory only; the attempt status
	// gate in the workflow is what actually guarantees idempotency.
	dedupKey := constants.BuildWebhookDedupKey(txn.TID)
	fresh, err := s.cache.SetIfAbsent(ctx, dedupKey, 1, s.cfg.Redis.WebhookDedupTTL)
	if err != nil {
		s.logger.WarnContext(ctx, "webhook dedup check failed, continuing", "tid", txn.TID, "error", err.Error())
	} else if !fresh {
		return TransactionResult{
			TID:    txn.TID,
			Status: string(tickets.ConfirmDuplicate),
			Reason: "reference already processed",
		}
	}

	code := attemptCodePattern.FindString(txn.Description)
	if code == "" {
		s.logger.LogPaymentRejected(ctx, txn.TID, "no booking code in description")
		return TransactionResult{
			TID:    txn.TID,
			Status: string(tickets.ConfirmRejected),
			Reason: "no booking code in transfer description",
		}
	}

	result, err := s.confirmer.ConfirmPayment(ctx, code, txn.TID, txn.Amount)
	if err != nil {
		s.logger.ErrorWithContext(ctx, "payment confirmation failed", err, map[string]interface{}{
			"tid":  txn.TID,
			"code": code,
		})
		return TransactionResult{
			TID:    txn.TID,
			Code:   code,
			Status: string(tickets.ConfirmRejected),
			Reason: fmt.Sprintf("internal error: %v", err),
		}
	}

	return TransactionResult{
		TID:    txn.TID,
		Code:   result.Code,
		Status: string(result.Status),
		Reason: result.Reason,
	}
}
