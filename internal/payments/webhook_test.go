package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"bustix/internal/shared/config"
	"bustix/internal/shared/constants"
	"bustix/internal/tickets"
	"bustix/pkg/cache"
	"bustix/pkg/logger"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockConfirmer struct {
	mock.Mock
}

func (m *MockConfirmer) ConfirmPayment(ctx context.Context, code, paymentRef string, amount float64) (*tickets.ConfirmResult, error) {
	args := m.Called(ctx, code, paymentRef, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tickets.ConfirmResult), args.Error(1)
}

func webhookConfig() *config.Config {
	return &config.Config{
		Payment: config.PaymentConfig{
			WebhookSecret: "test-webhook-secret",
		},
		Redis: config.RedisConfig{
			WebhookDedupTTL: 24 * time.Hour,
		},
	}
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	client, _ := redismock.NewClientMock()
	svc := NewService(new(MockConfirmer), cache.NewService(client), webhookConfig(), logger.New())

	body := []byte(`{"error":0,"data":[]}`)

	assert.True(t, svc.VerifySignature(body, sign("test-webhook-secret", body)))
	assert.False(t, svc.VerifySignature(body, sign("wrong-secret", body)))
	assert.False(t, svc.VerifySignature(body, ""))
}

func TestVerifySignature_EmptySecretRejectsEverything(t *testing.T) {
	client, _ := redismock.NewClientMock()
	cfg := webhookConfig()
	cfg.Payment.WebhookSecret = ""
	svc := NewService(new(MockConfirmer), cache.NewService(client), cfg, logger.New())

	body := []byte(`{}`)
	assert.False(t, svc.VerifySignature(body, sign("", body)))
}

func TestHandleWebhook_ConfirmsMatchedTransaction(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	confirmer := new(MockConfirmer)
	cfg := webhookConfig()
	svc := NewService(confirmer, cache.NewService(client), cfg, logger.New())

	redisMock.ExpectSetNX(constants.BuildWebhookDedupKey("FT12345"), []byte("1"), cfg.Redis.WebhookDedupTTL).SetVal(true)
	confirmer.On("ConfirmPayment", mock.Anything, "BUS-20260830-KQWZPA", "FT12345", 100000.0).Return(&tickets.ConfirmResult{
		Status: tickets.ConfirmAccepted,
		Code:   "BUS-20260830-KQWZPA",
	}, nil)

	results := svc.HandleWebhook(context.Background(), WebhookPayload{
		Data: []Transaction{
			{TID: "FT12345", Description: "chuyen khoan BUS-20260830-KQWZPA", Amount: 100000},
		},
	})

	assert.Len(t, results, 1)
	assert.Equal(t, string(tickets.ConfirmAccepted), results[0].Status)
	assert.Equal(t, "BUS-20260830-KQWZPA", results[0].Code)
	confirmer.AssertExpectations(t)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandleWebhook_RedeliveredReferenceSkipsWorkflow(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	confirmer := new(MockConfirmer)
	cfg := webhookConfig()
	svc := NewService(confirmer, cache.NewService(client), cfg, logger.New())

	redisMock.ExpectSetNX(constants.BuildWebhookDedupKey("FT12345"), []byte("1"), cfg.Redis.WebhookDedupTTL).SetVal(false)

	results := svc.HandleWebhook(context.Background(), WebhookPayload{
		Data: []Transaction{
			{TID: "FT12345", Description: "BUS-20260830-KQWZPA", Amount: 100000},
		},
	})

	assert.Len(t, results, 1)
	assert.Equal(t, string(tickets.ConfirmDuplicate), results[0].Status)
	confirmer.AssertNotCalled(t, "ConfirmPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebhook_NoCodeInDescriptionRejected(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	confirmer := new(MockConfirmer)
	cfg := webhookConfig()
	svc := NewService(confirmer, cache.NewService(client), cfg, logger.New())

	redisMock.ExpectSetNX(constants.BuildWebhookDedupKey("FT99999"), []byte("1"), cfg.Redis.WebhookDedupTTL).SetVal(true)

	results := svc.HandleWebhook(context.Background(), WebhookPayload{
		Data: []Transaction{
			{TID: "FT99999", Description: "no code here", Amount: 50000},
		},
	})

	assert.Len(t, results, 1)
	assert.Equal(t, string(tickets.ConfirmRejected), results[0].Status)
	confirmer.AssertNotCalled(t, "ConfirmPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebhook_DedupFailureStillConfirms(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	confirmer := new(MockConfirmer)
	cfg := webhookConfig()
	svc := NewService(confirmer, cache.NewService(client), cfg, logger.New())

	// Redis being down must not drop payments; the workflow gate catches
	// duplicates anyway
	redisMock.ExpectSetNX(constants.BuildWebhookDedupKey("FT55555"), []byte("1"), cfg.Redis.WebhookDedupTTL).SetErr(assert.AnError)
	confirmer.On("ConfirmPayment", mock.Anything, "BUS-20260830-ABCXYZ", "FT55555", 75000.0).Return(&tickets.ConfirmResult{
		Status: tickets.ConfirmAccepted,
		Code:   "BUS-20260830-ABCXYZ",
	}, nil)

	results := svc.HandleWebhook(context.Background(), WebhookPayload{
		Data: []Transaction{
			{TID: "FT55555", Description: "BUS-20260830-ABCXYZ", Amount: 75000},
		},
	})

	assert.Equal(t, string(tickets.ConfirmAccepted), results[0].Status)
	confirmer.AssertExpectations(t)
}
