package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/mcabalar/acadrepo-api/internal/models"
	"github.com/mcabalar/acadrepo-api/internal/registry"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func mustResolve(t *testing.T, kind string) registry.Descriptor {
	t.Helper()
	d, err := registry.Resolve(kind)
	require.NoError(t, err)
	return d
}

func TestResourceRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db)
	d := mustResolve(t, registry.KindResearch)

	rows := sqlmock.NewRows([]string{
		"id", "title", "owner_id", "created_at", "status", "is_active",
		"archived_at", "archived_by", "feedback", "file_path", "file_size",
		"reviewed_by", "reviewed_at",
	}).AddRow(7, "Neural Pruning", 3, time.Now(), "pending", true,
		nil, nil, nil, "/uploads/research/7.pdf", int64(2048), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM research_papers WHERE research_id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	res, err := repo.GetByID(context.Background(), d, 7)
	require.NoError(t, err)
	require.Equal(t, int64(7), res.ID)
	require.Equal(t, registry.KindResearch, res.Kind)
	require.Equal(t, models.StatusPending, res.Status)
	require.True(t, res.Active)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryTransitionCommitsWithNotifications(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db)
	d := mustResolve(t, registry.KindResearch)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE research_papers SET status = $1, rejection_reason = $2, approved_by = $3, approved_at = NOW() WHERE research_id = $4 AND is_active = TRUE")).
		WithArgs("approved", "well done", int64(9), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	notifications := []models.Notification{
		{UserID: 3, Title: "Status updated", Message: "approved", Type: models.NotificationSuccess},
		{UserID: 9, Title: "You approved an item", Message: "approved", Type: models.NotificationInfo},
	}
	err := repo.Transition(context.Background(), d, TransitionParams{
		ID: 7, Status: models.StatusApproved, Feedback: "well done", ActorID: 9,
	}, notifications)
	require.NoError(t, err)
	require.NotEmpty(t, notifications[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryTransitionRollsBackOnNotificationFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db)
	d := mustResolve(t, registry.KindApprovalRequest)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE approval_requests SET status = $1, reviewed_by = $2, reviewed_at = NOW() WHERE request_id = $3")).
		WithArgs("rejected", int64(9), int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.Transition(context.Background(), d, TransitionParams{
		ID: 12, Status: models.StatusRejected, ActorID: 9,
	}, []models.Notification{{UserID: 4, Title: "Status updated", Type: models.NotificationWarning}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryTransitionStampsReviewerAlways(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db)
	d := mustResolve(t, registry.KindApprovalRequest)

	mock.ExpectBegin()
	// approval requests stamp reviewed_by even on non-approval changes
	mock.ExpectExec(regexp.QuoteMeta("UPDATE approval_requests SET status = $1, reviewed_by = $2, reviewed_at = NOW() WHERE request_id = $3")).
		WithArgs("under_review", int64(2), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Transition(context.Background(), d, TransitionParams{
		ID: 5, Status: models.StatusUnderReview, ActorID: 2,
	}, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryArchiveGuardsActiveRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db)
	d := mustResolve(t, registry.KindResearch)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE research_papers SET is_active = FALSE, archived_at = NOW(), archived_by = $1, rejection_reason = $2 WHERE research_id = $3 AND is_active = TRUE")).
		WithArgs(int64(9), "superseded", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Archive(context.Background(), d, 7, 9, "superseded"))

	// second racing archive observes zero rows
	mock.ExpectExec(regexp.QuoteMeta("AND is_active = TRUE")).
		WithArgs(int64(9), "superseded", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Archive(context.Background(), d, 7, 9, "superseded")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryRestoreClearsArchiveMeta(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db)
	d := mustResolve(t, registry.KindMaterial)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE materials SET is_active = TRUE, archived_at = NULL, archived_by = NULL WHERE material_id = $1 AND is_active = FALSE")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Restore(context.Background(), d, 4))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryDeleteClassWithMaterials(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM learning_materials WHERE class_id = $1")).
		WithArgs(int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM classes WHERE id = $1")).
		WithArgs(int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteClassWithMaterials(context.Background(), 11))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositorySetMaterialsActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE learning_materials SET is_active = $2 WHERE class_id = $1 AND is_active <> $2")).
		WithArgs(int64(11), false).
		WillReturnResult(sqlmock.NewResult(0, 3))

	affected, err := repo.SetMaterialsActive(context.Background(), 11, false)
	require.NoError(t, err)
	require.Equal(t, int64(3), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}
