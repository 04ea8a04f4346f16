package books

import (
	"context"
	"database/sql"
	"testing"

	"github.com/keenpages/catalog/pkg/errcodes"
	"github.com/keenpages/catalog/pkg/migrations"
	"github.com/keenpages/catalog/pkg/models"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func createAuthor(t *testing.T, db *bun.DB, name string) *models.Author {
	t.Helper()
	a := &models.Author{Name: name}
	_, err := db.NewInsert().Model(a).Returning("*").Exec(context.Background())
	require.NoError(t, err)
	return a
}

func createTopic(t *testing.T, db *bun.DB, name string) *models.Topic {
	t.Helper()
	topic := &models.Topic{Name: name, Active: true}
	_, err := db.NewInsert().Model(topic).Returning("*").Exec(context.Background())
	require.NoError(t, err)
	return topic
}

func createUser(t *testing.T, db *bun.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username}
	_, err := db.NewInsert().Model(u).Returning("*").Exec(context.Background())
	require.NoError(t, err)
	return u
}

func TestService_CreateAndPopulate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	svc := NewService(db)

	herbert := createAuthor(t, db, "Frank Herbert")
	scifi := createTopic(t, db, "scifi")

	book := &models.Book{
		GID:    "g1",
		GTag:   "t1",
		Title:  "Dune",
		ISBN10: "0441013597",
		Active: true,
		Authors: []*models.BookAuthor{
			{AuthorID: herbert.ID},
		},
		Topics: []*models.BookTopic{
			{TopicID: scifi.ID},
		},
		Pictures: []*models.Picture{
			{Link: "https://img.example.com/dune.jpg", PublicID: "covers/dune", IsDefault: true},
		},
		ThirdPartyData: []*models.ThirdPartyData{
			{Provider: "openLibrary", Payload: json.RawMessage(`{"title":"Dune"}`)},
		},
	}
	require.NoError(t, svc.CreateBook(ctx, book))
	require.NotZero(t, book.ID)

	gid := "g1"
	got, err := svc.RetrieveBook(ctx, RetrieveBookOptions{GID: &gid, Populate: true})
	require.NoError(t, err)

	assert.Equal(t, book.ID, got.ID)
	assert.Equal(t, "Dune", got.Title)
	assert.True(t, got.Active)
	assert.Equal(t, []int{}, got.Likes)
	require.Len(t, got.Authors, 1)
	require.NotNil(t, got.Authors[0].Author)
	assert.Equal(t, "Frank Herbert", got.Authors[0].Author.Name)
	require.Len(t, got.Topics, 1)
	require.NotNil(t, got.Topics[0].Topic)
	assert.Equal(t, "scifi", got.Topics[0].Topic.Name)
	assert.Equal(t, []int{}, got.Topics[0].Agreed)
	require.Len(t, got.Pictures, 1)
	assert.True(t, got.Pictures[0].IsDefault)
	require.Len(t, got.ThirdPartyData, 1)
	assert.Equal(t, "openLibrary", got.ThirdPartyData[0].Provider)
	assert.JSONEq(t, `{"title":"Dune"}`, string(got.ThirdPartyData[0].Payload))
}

func TestService_RetrieveBookNotFound(t *testing.T) {
	t.Parallel()
	svc := NewService(setupTestDB(t))

	gid := "missing"
	_, err := svc.RetrieveBook(context.Background(), RetrieveBookOptions{GID: &gid})
	assert.ErrorIs(t, err, errcodes.NotFound("Book"))
}

func TestService_DuplicateGIDRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(setupTestDB(t))

	require.NoError(t, svc.CreateBook(ctx, &models.Book{GID: "g1", Title: "Dune", Active: true}))
	assert.Error(t, svc.CreateBook(ctx, &models.Book{GID: "g1", Title: "Dune again", Active: true}))
}

func TestService_FindDuplicate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(setupTestDB(t))

	existing := &models.Book{
		Title:      "Dune",
		ISBN:       "0441013597",
		AmazonLink: "https://www.amazon.com/dp/0441013597",
		Active:     true,
	}
	require.NoError(t, svc.CreateBook(ctx, existing))

	byISBN, err := svc.FindDuplicate(ctx, "0441013597", "https://elsewhere.example.com")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, byISBN.ID)

	byLink, err := svc.FindDuplicate(ctx, "9999999999", "HTTPS://WWW.AMAZON.COM/dp/0441013597")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, byLink.ID)

	_, err = svc.FindDuplicate(ctx, "9999999999", "https://elsewhere.example.com")
	assert.ErrorIs(t, err, errcodes.NotFound("Book"))
}

func TestService_IncrementViews(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(setupTestDB(t))

	book := &models.Book{Title: "Dune", Active: true}
	require.NoError(t, svc.CreateBook(ctx, book))

	require.NoError(t, svc.IncrementViews(ctx, book.ID))
	require.NoError(t, svc.IncrementViews(ctx, book.ID))

	got, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Views)
}

func TestService_AddTopicsSkipsExistingAssociations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	svc := NewService(db)

	scifi := createTopic(t, db, "scifi")
	desert := createTopic(t, db, "desert")

	book := &models.Book{Title: "Dune", Active: true, Topics: []*models.BookTopic{{TopicID: scifi.ID}}}
	require.NoError(t, svc.CreateBook(ctx, book))

	added, err := svc.AddTopics(ctx, book.ID, []*models.Topic{scifi, desert, desert}, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	got, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID, Populate: true})
	require.NoError(t, err)
	require.Len(t, got.Topics, 2)
	assert.Equal(t, "scifi", got.Topics[0].Topic.Name)
	assert.Equal(t, []int{}, got.Topics[0].Agreed)
	assert.Equal(t, "desert", got.Topics[1].Topic.Name)
	assert.Equal(t, []int{5}, got.Topics[1].Agreed)

	added, err = svc.AddTopics(ctx, book.ID, []*models.Topic{desert}, 5)
	require.NoError(t, err)
	assert.Zero(t, added)
}

func TestService_ToggleAgreement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	svc := NewService(db)

	scifi := createTopic(t, db, "scifi")
	book := &models.Book{Title: "Dune", Active: true, Topics: []*models.BookTopic{{TopicID: scifi.ID}}}
	require.NoError(t, svc.CreateBook(ctx, book))
	assocID := book.Topics[0].ID
	require.NotZero(t, assocID)

	bt, err := svc.ToggleAgreement(ctx, book.ID, assocID, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, bt.Agreed)

	bt, err = svc.ToggleAgreement(ctx, book.ID, assocID, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{}, bt.Agreed)

	_, err = svc.ToggleAgreement(ctx, book.ID+1, assocID, 3)
	assert.ErrorIs(t, err, errcodes.NotFound("Topic"))
}

func TestService_ToggleLike(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(setupTestDB(t))

	book := &models.Book{Title: "Dune", Active: true}
	require.NoError(t, svc.CreateBook(ctx, book))

	got, err := svc.ToggleLike(ctx, book.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, []int{8}, got.Likes)

	got, err = svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID})
	require.NoError(t, err)
	assert.Equal(t, []int{8}, got.Likes)

	_, err = svc.ToggleLike(ctx, book.ID+100, 8)
	assert.ErrorIs(t, err, errcodes.NotFound("Book"))
}
