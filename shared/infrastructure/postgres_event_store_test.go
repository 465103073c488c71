package infrastructure

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/draftea/nft-marketplace/shared/events"
	"github.com/draftea/nft-marketplace/shared/models"
	"github.com/draftea/nft-marketplace/shared/saga"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresEventStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresEventStore(sqlx.NewDb(db, "postgres")), mock
}

func TestPostgresEventStore_Append(t *testing.T) {
	tests := []struct {
		name          string
		setupMocks    func(mock sqlmock.Sqlmock)
		expectedError string
	}{
		{
			name: "appends after the current stream version",
			setupMocks: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT COALESCE").WithArgs("nft-1").
					WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(2))
				mock.ExpectExec("INSERT INTO event_stream").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("INSERT INTO event_stream").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "insert failure rolls back",
			setupMocks: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT COALESCE").WithArgs("nft-1").
					WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
				mock.ExpectExec("INSERT INTO event_stream").WillReturnError(errors.New("duplicate key"))
				mock.ExpectRollback()
			},
			expectedError: "failed to insert event",
		},
		{
			name: "begin failure",
			setupMocks: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errors.New("connection refused"))
			},
			expectedError: "failed to begin transaction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			tt.setupMocks(mock)

			err := store.Append(context.Background(),
				events.NewEvent("nft-1", events.NFTListingRequestedEvent, map[string]any{"price_lamports": 10}),
				events.NewEvent("nft-1", events.NFTStatusUpdatedEvent, map[string]any{"status": "listed"}),
			)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresEventStore_GetEvents(t *testing.T) {
	store, mock := newMockStore(t)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, aggregate_id").WithArgs("nft-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "aggregate_id", "event_type", "version", "data", "metadata",
			"timestamp", "correlation_id", "stream_version",
		}).
			AddRow("e-1", "nft-1", events.NFTListingRequestedEvent, "1.0", []byte(`{"price_lamports":10}`), []byte(`{"source":"api"}`), ts, "saga-1", 1).
			AddRow("e-2", "nft-1", events.NFTStatusUpdatedEvent, "1.0", []byte(`{"status":"listed"}`), []byte(`null`), ts, "", 2))

	got, err := store.GetEvents(context.Background(), models.ID("nft-1"))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, models.ID("e-1"), got[0].ID)
	assert.Equal(t, events.Topic(events.NFTListingRequestedEvent), got[0].Topic)
	assert.Equal(t, models.ID("saga-1"), got[0].CorrelationID)
	assert.Equal(t, "api", got[0].Metadata["source"])

	var payload struct {
		PriceLamports int64 `json:"price_lamports"`
	}
	require.NoError(t, got[0].UnmarshalPayload(&payload))
	assert.Equal(t, int64(10), payload.PriceLamports)

	assert.NotNil(t, got[1].Metadata)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type capturingStore struct {
	appended []*events.Event
}

func (s *capturingStore) Append(ctx context.Context, evts ...*events.Event) error {
	s.appended = append(s.appended, evts...)
	return nil
}

func (s *capturingStore) GetEvents(ctx context.Context, aggregateID models.ID) ([]*events.Event, error) {
	return s.appended, nil
}

func TestSagaJournal_Record(t *testing.T) {
	tests := []struct {
		status       saga.Status
		expectedType string
	}{
		{status: saga.StatusActive, expectedType: events.SagaStartedEvent},
		{status: saga.StatusCommitted, expectedType: events.SagaCommittedEvent},
		{status: saga.StatusRolledBack, expectedType: events.SagaRolledBackEvent},
		{status: saga.StatusPartiallyRolledBack, expectedType: events.SagaCompensationFailedEvent},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			store := &capturingStore{}
			journal := NewSagaJournal(store)
			ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

			err := journal.Record(context.Background(), saga.JournalEntry{
				SagaID:        "saga-1",
				Status:        tt.status,
				Compensations: []string{"restore-nft"},
				Timestamp:     ts,
			})
			require.NoError(t, err)

			require.Len(t, store.appended, 1)
			event := store.appended[0]
			assert.Equal(t, tt.expectedType, event.EventType)
			assert.Equal(t, models.ID("saga-1"), event.AggregateID)
			assert.Equal(t, ts, event.Timestamp)

			raw, err := event.MarshalPayload()
			require.NoError(t, err)
			var payload map[string]any
			require.NoError(t, json.Unmarshal(raw, &payload))
			assert.Equal(t, string(tt.status), payload["status"])
		})
	}
}
