package repository

import (
	"context"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "docflow/internal/db"
	"docflow/internal/domain"
)

func setupReviewRepo(t *testing.T) (*ReviewRepo, *DocumentRepo, *UserRepo) {
	t.Helper()
	writeDB, _ := internaldb.OpenTestSQLite(t)
	return NewReviewRepo(writeDB), NewDocumentRepo(writeDB), NewUserRepo(writeDB)
}

func seedReviewer(t *testing.T, users *UserRepo, name string) string {
	t.Helper()
	u, err := users.Create(context.Background(), &domain.User{
		Name: name, Role: domain.RoleReviewer, Active: true,
	})
	require.NoError(t, err)
	return u.ID
}

func seedDocument(t *testing.T, docs *DocumentRepo) *domain.Document {
	t.Helper()
	d, err := docs.Create(context.Background(), &domain.Document{
		Title: "Guide", DocType: "user_guide", CurrentVersion: 1, Status: domain.DocumentActive,
	})
	require.NoError(t, err)
	return d
}

func TestReviewRepo_OpenChangeUniqueness(t *testing.T) {
	reviews, docs, _ := setupReviewRepo(t)
	doc := seedDocument(t, docs)

	_, err := reviews.Create(context.Background(), &domain.Review{
		DocumentID: doc.ID, ChangeID: "chg-1", ProposedVersion: 2,
		Status: domain.ReviewPending, Priority: 4, ImpactScore: 4,
	})
	require.NoError(t, err)

	// A second open review for the same (document, change) violates the
	// partial unique index.
	_, err = reviews.Create(context.Background(), &domain.Review{
		DocumentID: doc.ID, ChangeID: "chg-1", ProposedVersion: 3,
		Status: domain.ReviewPending, Priority: 4, ImpactScore: 4,
	})
	require.Error(t, err)
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)

	// Terminal rows don't participate in the index.
	_, err = reviews.Create(context.Background(), &domain.Review{
		DocumentID: doc.ID, ChangeID: "chg-2", ProposedVersion: 2,
		Status: domain.ReviewRejected, Priority: 4, ImpactScore: 4,
	})
	require.NoError(t, err)
	_, err = reviews.Create(context.Background(), &domain.Review{
		DocumentID: doc.ID, ChangeID: "chg-2", ProposedVersion: 2,
		Status: domain.ReviewPending, Priority: 4, ImpactScore: 4,
	})
	require.NoError(t, err)
}

func TestReviewRepo_GetOpenByChange(t *testing.T) {
	reviews, docs, _ := setupReviewRepo(t)
	doc := seedDocument(t, docs)

	_, err := reviews.GetOpenByChange(context.Background(), doc.ID, "missing")
	require.Error(t, err)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	created, err := reviews.Create(context.Background(), &domain.Review{
		DocumentID: doc.ID, ChangeID: "chg-1", ProposedVersion: 2,
		Status: domain.ReviewPending, Priority: 4, ImpactScore: 4,
	})
	require.NoError(t, err)

	got, err := reviews.GetOpenByChange(context.Background(), doc.ID, "chg-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestReviewRepo_TransitionGuard(t *testing.T) {
	reviews, docs, users := setupReviewRepo(t)
	doc := seedDocument(t, docs)

	rv, err := reviews.Create(context.Background(), &domain.Review{
		DocumentID: doc.ID, ChangeID: "chg-1", ProposedVersion: 2,
		Status: domain.ReviewPending, Priority: 4, ImpactScore: 4,
	})
	require.NoError(t, err)

	reviewer := seedReviewer(t, users, "user-1")
	rv.Status = domain.ReviewInReview
	rv.ReviewerID = &reviewer

	ok, err := reviews.Transition(context.Background(), rv, domain.ReviewPending, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	// The same guard no longer holds: the row is in_review with a reviewer.
	other := seedReviewer(t, users, "user-2")
	stale := *rv
	stale.ReviewerID = &other
	ok, err = reviews.Transition(context.Background(), &stale, domain.ReviewPending, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := reviews.GetByID(context.Background(), rv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewInReview, got.Status)
	require.NotNil(t, got.ReviewerID)
	assert.Equal(t, reviewer, *got.ReviewerID)
}

func TestReviewRepo_OpenCountsByReviewer(t *testing.T) {
	reviews, docs, users := setupReviewRepo(t)
	doc := seedDocument(t, docs)

	mk := func(changeID string, status domain.ReviewStatus, reviewer *string) {
		_, err := reviews.Create(context.Background(), &domain.Review{
			DocumentID: doc.ID, ChangeID: changeID, ProposedVersion: 2,
			Status: status, Priority: 4, ImpactScore: 4, ReviewerID: reviewer,
		})
		require.NoError(t, err)
	}
	alice := seedReviewer(t, users, "alice")
	bob := seedReviewer(t, users, "bob")
	mk("chg-1", domain.ReviewInReview, &alice)
	mk("chg-2", domain.ReviewInReview, &alice)
	mk("chg-3", domain.ReviewInReview, &bob)
	mk("chg-4", domain.ReviewApproved, &bob) // terminal, not counted
	mk("chg-5", domain.ReviewPending, nil)   // unassigned, not counted

	counts, err := reviews.OpenCountsByReviewer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[alice])
	assert.Equal(t, int64(1), counts[bob])
	assert.Len(t, counts, 2)
}

func TestReviewRepo_ModificationsRoundTrip(t *testing.T) {
	reviews, docs, _ := setupReviewRepo(t)
	doc := seedDocument(t, docs)

	rv, err := reviews.Create(context.Background(), &domain.Review{
		DocumentID: doc.ID, ChangeID: "chg-1", ProposedVersion: 2,
		Status: domain.ReviewPending, Priority: 4, ImpactScore: 4,
		Modifications: map[string]interface{}{"intro": "tighten wording"},
	})
	require.NoError(t, err)

	got, err := reviews.GetByID(context.Background(), rv.ID)
	require.NoError(t, err)
	assert.Equal(t, "tighten wording", got.Modifications["intro"])
}
