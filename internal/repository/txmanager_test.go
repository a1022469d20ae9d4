package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siakad/thesis-workflow/internal/domain/entity"
)

func TestTxManager_RollbackDiscardsAllWrites(t *testing.T) {
	db := testDB(t)
	tm := NewTxManager(db)
	history := NewHistoryRepository(db.DB, zap.NewNop())
	notifs := NewNotificationRepository(db.DB, zap.NewNop())
	ctx := context.Background()

	boom := errors.New("downstream failure")
	err := tm.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := history.Append(txCtx, &entity.HistoryEntry{
			SubjectType: entity.SubjectProposal, SubjectID: 1, ActorID: "sup-1",
			Status: entity.ProposalStatusSubmitted, Note: "approval by supervisor1",
		}); err != nil {
			return err
		}
		if err := notifs.Create(txCtx, &entity.Notification{
			FromUserID: "system", ToUserID: "student-1", Title: "t", Body: "b",
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	trail, err := history.ListBySubject(ctx, entity.SubjectProposal, 1)
	require.NoError(t, err)
	assert.Empty(t, trail, "history write must roll back with the transaction")

	pending, err := notifs.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "notification write must roll back with the transaction")
}

func TestTxManager_CommitMakesWritesVisible(t *testing.T) {
	db := testDB(t)
	tm := NewTxManager(db)
	history := NewHistoryRepository(db.DB, zap.NewNop())
	ctx := context.Background()

	err := tm.WithTransaction(ctx, func(txCtx context.Context) error {
		return history.Append(txCtx, &entity.HistoryEntry{
			SubjectType: entity.SubjectProposal, SubjectID: 1, ActorID: "student-1",
			Status: entity.ProposalStatusSubmitted, Note: "proposal submitted",
		})
	})
	require.NoError(t, err)

	trail, err := history.ListBySubject(ctx, entity.SubjectProposal, 1)
	require.NoError(t, err)
	assert.Len(t, trail, 1)
}

func TestExecutorFrom_JoinsTransaction(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	txCtx := context.WithValue(ctx, txKey{}, tx)
	assert.Equal(t, executor(tx), executorFrom(txCtx, db.DB))
	assert.Equal(t, executor(db.DB), executorFrom(ctx, db.DB))
}
