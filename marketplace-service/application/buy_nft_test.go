package application

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/draftea/nft-marketplace/marketplace-service/domain"
	"github.com/draftea/nft-marketplace/shared/events"
	"github.com/draftea/nft-marketplace/shared/models"
	"github.com/draftea/nft-marketplace/shared/outbox"
	"github.com/draftea/nft-marketplace/shared/saga"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	testFee         = PlatformFee{BasisPoints: 250, Wallet: "FeeWallet"}
	errAccountStore = errors.New("account store timeout")
)

func TestBuyNFT_Execute(t *testing.T) {
	validCommand := &BuyNFTCommand{NFTID: "R1", BuyerWallet: "W2"}

	tests := []struct {
		name            string
		command         *BuyNFTCommand
		nft             *domain.NFT
		setupMocks      func(m *workflowMocks, nft *domain.NFT, captured *outbox.Message)
		expectedError   error
		expectedOutcome Outcome
		expectedOwner   string
	}{
		{
			name:    "creates the buyer account and transfers ownership",
			command: validCommand,
			nft:     listedNFT(),
			setupMocks: func(m *workflowMocks, nft *domain.NFT, captured *outbox.Message) {
				m.repo.EXPECT().FindByID(mock.Anything, models.ID("R1")).Return(nft, nil).Once()
				acceptIntent(m, captured)
				m.repo.EXPECT().Save(mock.Anything, nft).Return(nil).Once()
				m.accounts.EXPECT().FindByWallet(mock.Anything, "W2").Return(nil, nil).Once()
				m.accounts.EXPECT().Create(mock.Anything, mock.MatchedBy(func(a *domain.Account) bool {
					return a.Wallet == "W2" && a.ID != ""
				})).Return(nil).Once()
				m.cache.EXPECT().Invalidate(mock.Anything, models.ID("R1")).Return(nil).Once()
				m.events.EXPECT().Publish(mock.Anything, mock.MatchedBy(func(e *events.Event) bool {
					return e.EventType == events.NFTPurchaseRequestedEvent
				})).Return(nil).Once()
			},
			expectedOwner: "W2",
		},
		{
			name:    "reuses an existing buyer account",
			command: validCommand,
			nft:     listedNFT(),
			setupMocks: func(m *workflowMocks, nft *domain.NFT, captured *outbox.Message) {
				m.repo.EXPECT().FindByID(mock.Anything, models.ID("R1")).Return(nft, nil).Once()
				acceptIntent(m, captured)
				m.repo.EXPECT().Save(mock.Anything, nft).Return(nil).Once()
				m.accounts.EXPECT().FindByWallet(mock.Anything, "W2").Return(&domain.Account{ID: "A2", Wallet: "W2"}, nil).Once()
				m.cache.EXPECT().Invalidate(mock.Anything, models.ID("R1")).Return(nil).Once()
				m.events.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
			},
			expectedOwner: "W2",
		},
		{
			name:    "owner cannot buy own record",
			command: &BuyNFTCommand{NFTID: "R1", BuyerWallet: "W1"},
			nft:     listedNFT(),
			setupMocks: func(m *workflowMocks, nft *domain.NFT, captured *outbox.Message) {
				m.repo.EXPECT().FindByID(mock.Anything, models.ID("R1")).Return(nft, nil).Once()
			},
			expectedError:   domain.ErrPreconditionFailed,
			expectedOutcome: OutcomeNotAttempted,
			expectedOwner:   "W1",
		},
		{
			name:    "record is not listed",
			command: validCommand,
			nft:     unlistedNFT(),
			setupMocks: func(m *workflowMocks, nft *domain.NFT, captured *outbox.Message) {
				m.repo.EXPECT().FindByID(mock.Anything, models.ID("R1")).Return(nft, nil).Once()
			},
			expectedError:   domain.ErrPreconditionFailed,
			expectedOutcome: OutcomeNotAttempted,
			expectedOwner:   "W1",
		},
		{
			name:    "account creation failure restores the record",
			command: validCommand,
			nft:     listedNFT(),
			setupMocks: func(m *workflowMocks, nft *domain.NFT, captured *outbox.Message) {
				m.repo.EXPECT().FindByID(mock.Anything, models.ID("R1")).Return(nft, nil).Once()
				acceptIntent(m, captured)
				m.repo.EXPECT().Save(mock.Anything, nft).Return(nil).Once()
				m.accounts.EXPECT().FindByWallet(mock.Anything, "W2").Return(nil, nil).Once()
				m.accounts.EXPECT().Create(mock.Anything, mock.Anything).Return(errors.New("duplicate key")).Once()
				m.repo.EXPECT().ReplaceByID(mock.Anything, models.ID("R1"), mock.MatchedBy(func(n *domain.NFT) bool {
					return n.Owner == "W1" && n.IsListed && n.Version.Value == 5
				})).Return(nil).Once()
				m.cache.EXPECT().Invalidate(mock.Anything, models.ID("R1")).Return(nil).Once()
			},
			expectedError:   domain.ErrPersistenceFailure,
			expectedOutcome: OutcomeRolledBack,
			expectedOwner:   "W1",
		},
		{
			name:    "account lookup failure restores the record",
			command: validCommand,
			nft:     listedNFT(),
			setupMocks: func(m *workflowMocks, nft *domain.NFT, captured *outbox.Message) {
				m.repo.EXPECT().FindByID(mock.Anything, models.ID("R1")).Return(nft, nil).Once()
				acceptIntent(m, captured)
				m.repo.EXPECT().Save(mock.Anything, nft).Return(nil).Once()
				m.accounts.EXPECT().FindByWallet(mock.Anything, "W2").Return(nil, errAccountStore).Once()
				m.repo.EXPECT().ReplaceByID(mock.Anything, models.ID("R1"), mock.Anything).Return(nil).Once()
				m.cache.EXPECT().Invalidate(mock.Anything, models.ID("R1")).Return(nil).Once()
			},
			expectedError:   errAccountStore,
			expectedOutcome: OutcomeRolledBack,
			expectedOwner:   "W1",
		},
		{
			name:    "queue backpressure",
			command: validCommand,
			nft:     listedNFT(),
			setupMocks: func(m *workflowMocks, nft *domain.NFT, captured *outbox.Message) {
				m.repo.EXPECT().FindByID(mock.Anything, models.ID("R1")).Return(nft, nil).Once()
				m.publisher.EXPECT().Publish(mock.Anything, testQueue, mock.Anything).Return(false, nil).Once()
			},
			expectedError:   outbox.ErrQueueRejected,
			expectedOutcome: OutcomeNotAttempted,
			expectedOwner:   "W1",
		},
		{
			name:            "missing buyer wallet",
			command:         &BuyNFTCommand{NFTID: "R1"},
			nft:             listedNFT(),
			setupMocks:      func(m *workflowMocks, nft *domain.NFT, captured *outbox.Message) {},
			expectedError:   ErrInvalidCommand,
			expectedOutcome: "",
			expectedOwner:   "W1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newWorkflowMocks(t)
			coordinator := saga.NewCoordinator()
			var captured outbox.Message
			tt.setupMocks(m, tt.nft, &captured)

			useCase := NewBuyNFT(m.workflow(coordinator), m.accounts, testFee)
			response, err := useCase.Execute(context.Background(), tt.command)

			assert.Zero(t, coordinator.Len())
			assert.Equal(t, tt.expectedOwner, tt.nft.Owner)

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.expectedError), err.Error())
				assert.Equal(t, tt.expectedOutcome, OutcomeOf(err))
				assert.Nil(t, response)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, testSagaID, response.TransactionID)
			assert.Equal(t, domain.NFTStatusPendingSale, response.NFT.Status)
			assert.False(t, response.NFT.IsListed)
			assert.Zero(t, response.NFT.Price)
			require.NotNil(t, response.NFT.AcquiredAt)
			assert.Equal(t, testNow, *response.NFT.AcquiredAt)

			last := response.NFT.History[len(response.NFT.History)-1]
			assert.Equal(t, domain.HistoryBuyRequest, last.Type)
			assert.Equal(t, "W1", last.From)
			assert.Equal(t, "W2", last.To)
			assert.Equal(t, models.Lamports(10*models.LamportsPerSOL), last.Price)

			assert.Equal(t, IntentBuy, captured.Type())
			var payload BuyIntent
			require.NoError(t, json.Unmarshal(captured.Payload(), &payload))
			assert.Equal(t, BuyIntent{
				TransactionID:       testSagaID,
				NFTID:               "R1",
				Mint:                "Mint111",
				BuyerWallet:         "W2",
				SellerWallet:        "W1",
				PriceLamports:       10_000_000_000,
				PlatformFeeLamports: 250_000_000,
				PlatformFeeWallet:   "FeeWallet",
			}, payload)
		})
	}
}

func TestBuyNFT_CanceledBeforeCommit(t *testing.T) {
	m := newWorkflowMocks(t)
	coordinator := saga.NewCoordinator()
	nft := listedNFT()
	var captured outbox.Message
	var order []string

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.repo.EXPECT().FindByID(mock.Anything, models.ID("R1")).Return(nft, nil).Once()
	acceptIntent(m, &captured)
	m.repo.EXPECT().Save(mock.Anything, nft).Return(nil).Once()
	m.accounts.EXPECT().FindByWallet(mock.Anything, "W2").Return(nil, nil).Once()
	m.accounts.EXPECT().Create(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, account *domain.Account) error {
			cancel()
			return nil
		}).Once()
	m.accounts.EXPECT().DeleteByID(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, id models.ID) error {
			require.NoError(t, ctx.Err(), "compensations run on a live context")
			order = append(order, "delete-buyer-account")
			return nil
		}).Once()
	m.repo.EXPECT().ReplaceByID(mock.Anything, models.ID("R1"), mock.Anything).
		RunAndReturn(func(ctx context.Context, id models.ID, n *domain.NFT) error {
			order = append(order, "restore-nft")
			return nil
		}).Once()
	m.cache.EXPECT().Invalidate(mock.Anything, models.ID("R1")).Return(nil).Once()

	_, err := NewBuyNFT(m.workflow(coordinator), m.accounts, testFee).Execute(ctx, &BuyNFTCommand{NFTID: "R1", BuyerWallet: "W2"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, OutcomeRolledBack, OutcomeOf(err))
	assert.Equal(t, []string{"delete-buyer-account", "restore-nft"}, order)
	assert.Equal(t, "W1", nft.Owner)
	assert.Zero(t, coordinator.Len())
}

func TestBuyNFT_PartialRollback(t *testing.T) {
	m := newWorkflowMocks(t)
	coordinator := saga.NewCoordinator()
	nft := listedNFT()
	var captured outbox.Message

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.repo.EXPECT().FindByID(mock.Anything, models.ID("R1")).Return(nft, nil).Once()
	acceptIntent(m, &captured)
	m.repo.EXPECT().Save(mock.Anything, nft).Return(nil).Once()
	m.accounts.EXPECT().FindByWallet(mock.Anything, "W2").Return(nil, nil).Once()
	m.accounts.EXPECT().Create(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, account *domain.Account) error {
			cancel()
			return nil
		}).Once()
	m.accounts.EXPECT().DeleteByID(mock.Anything, mock.Anything).Return(errors.New("account store offline")).Once()
	m.repo.EXPECT().ReplaceByID(mock.Anything, models.ID("R1"), mock.Anything).Return(nil).Once()
	m.cache.EXPECT().Invalidate(mock.Anything, models.ID("R1")).Return(nil).Once()
	m.events.EXPECT().Publish(mock.Anything, mock.MatchedBy(func(e *events.Event) bool {
		return e.EventType == events.SagaCompensationFailedEvent && e.AggregateID == models.ID(testSagaID)
	})).Return(nil).Once()

	_, err := NewBuyNFT(m.workflow(coordinator), m.accounts, testFee).Execute(ctx, &BuyNFTCommand{NFTID: "R1", BuyerWallet: "W2"})

	require.Error(t, err)
	assert.Equal(t, OutcomePartiallyRolledBack, OutcomeOf(err))
	assert.True(t, errors.Is(err, saga.ErrPartialRollback))

	var partial *saga.PartialRollbackError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, 2, partial.Total)
	assert.Equal(t, 1, partial.Failed)
	assert.Contains(t, err.Error(), "account store offline")
}

func TestBuyNFT_PlatformFeeForLargePrice(t *testing.T) {
	m := newWorkflowMocks(t)
	coordinator := saga.NewCoordinator()
	nft := listedNFT()
	nft.Price = models.Lamports(40_000_000 * models.LamportsPerSOL)
	var captured outbox.Message

	m.repo.EXPECT().FindByID(mock.Anything, models.ID("R1")).Return(nft, nil).Once()
	acceptIntent(m, &captured)
	m.repo.EXPECT().Save(mock.Anything, nft).Return(nil).Once()
	m.accounts.EXPECT().FindByWallet(mock.Anything, "W2").Return(&domain.Account{ID: "A2", Wallet: "W2"}, nil).Once()
	m.cache.EXPECT().Invalidate(mock.Anything, models.ID("R1")).Return(nil).Once()
	m.events.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()

	_, err := NewBuyNFT(m.workflow(coordinator), m.accounts, testFee).Execute(context.Background(), &BuyNFTCommand{NFTID: "R1", BuyerWallet: "W2"})
	require.NoError(t, err)

	var payload BuyIntent
	require.NoError(t, json.Unmarshal(captured.Payload(), &payload))
	assert.Equal(t, int64(40_000_000_000_000_000), payload.PriceLamports)
	assert.Equal(t, int64(1_000_000_000_000_000), payload.PlatformFeeLamports)
}
