package database

import (
	"context"
	"testing"
	"time"

	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createUser(t, db, "owner")
	author := createUser(t, db, "author")
	drill := createItem(t, db, owner.ID, "Drill", true)
	saw := createItem(t, db, owner.ID, "Saw", true)
	created := time.Date(2026, 1, 2, 3, 4, 5, 600, time.UTC)

	first := &models.Comment{Text: "great", ItemID: drill.ID, AuthorID: author.ID, Created: created}
	second := &models.Comment{Text: "sharp", ItemID: saw.ID, AuthorID: author.ID, Created: created}
	third := &models.Comment{Text: "again", ItemID: drill.ID, AuthorID: author.ID, Created: created}
	for _, c := range []*models.Comment{first, second, third} {
		require.NoError(t, db.CreateComment(ctx, c))
	}

	comments, err := db.GetCommentsByItemIDs(ctx, []int64{drill.ID})
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, first.ID, comments[0].ID)
	assert.Equal(t, third.ID, comments[1].ID)
	assert.Equal(t, "author", comments[0].AuthorName)
	assert.True(t, created.Equal(comments[0].Created))

	comments, err = db.GetCommentsByItemIDs(ctx, []int64{drill.ID, saw.ID})
	require.NoError(t, err)
	assert.Len(t, comments, 3)
}

func TestRequests(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var aliceRequests []*models.ItemRequest
	for i := 0; i < 3; i++ {
		r := &models.ItemRequest{Description: "need", RequesterID: alice.ID, Created: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, db.CreateRequest(ctx, r))
		aliceRequests = append(aliceRequests, r)
	}
	bobRequest := &models.ItemRequest{Description: "tent", RequesterID: bob.ID, Created: base}
	require.NoError(t, db.CreateRequest(ctx, bobRequest))

	got, err := db.GetRequestByID(ctx, bobRequest.ID)
	require.NoError(t, err)
	assert.Equal(t, "tent", got.Description)
	assert.True(t, base.Equal(got.Created))

	own, err := db.GetRequestsByRequester(ctx, alice.ID, models.Page{From: 0, Size: 2})
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, aliceRequests[2].ID, own[0].ID)
	assert.Equal(t, aliceRequests[1].ID, own[1].ID)

	others, err := db.GetRequestsExcept(ctx, alice.ID, models.Page{From: 0, Size: 10})
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, bobRequest.ID, others[0].ID)
}
