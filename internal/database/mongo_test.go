package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestIndexesDeclaration(t *testing.T) {
	idx := Indexes()
	require.Len(t, idx, 3)

	users := idx[0]
	assert.Equal(t, "users", users.Collection)
	require.Len(t, users.Models, 1)
	assert.True(t, *users.Models[0].Options.Unique)
	assert.Equal(t, bson.D{{Key: "username", Value: 1}}, users.Models[0].Keys)
	assert.False(t, isTextIndex(users.Models[0]))

	chars := idx[1]
	assert.Equal(t, "characters", chars.Collection)
	require.Len(t, chars.Models, 1)
	keys := chars.Models[0].Keys.(bson.D)
	require.Len(t, keys, 4)
	for _, k := range keys {
		assert.Equal(t, "text", k.Value, k.Key)
	}
	assert.True(t, isTextIndex(chars.Models[0]))

	assert.Equal(t, "categories", idx[2].Collection)
}

func indexCursor(specs ...bson.D) bson.D {
	return mtest.CreateCursorResponse(0, "catalog.characters", mtest.FirstBatch, specs...)
}

func startedCommands(mt *mtest.T) []string {
	var out []string
	for {
		ev := mt.GetStartedEvent()
		if ev == nil {
			return out
		}
		out = append(out, ev.CommandName+" "+ev.Command.Lookup(ev.CommandName).StringValue())
	}
}

func TestEnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates every index on a fresh database", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			indexCursor(bson.D{{Key: "name", Value: "_id_"}, {Key: "key", Value: bson.D{{Key: "_id", Value: 1}}}}),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
		)
		require.NoError(mt, EnsureIndexes(context.Background(), mt.DB))

		assert.Equal(mt, []string{
			"createIndexes users",
			"listIndexes characters",
			"createIndexes characters",
			"createIndexes categories",
		}, startedCommands(mt))
	})

	mt.Run("keeps an existing text index and tolerates legacy conflicts", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11000, Name: "DuplicateKey", Message: "E11000 duplicate key error"}),
			indexCursor(bson.D{{Key: "name", Value: "character_name_text"}, {Key: "textIndexVersion", Value: 3}}),
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: codeIndexOptionsConflict, Name: "IndexOptionsConflict", Message: "index already exists with a different name"}),
		)
		require.NoError(mt, EnsureIndexes(context.Background(), mt.DB))

		assert.Equal(mt, []string{
			"createIndexes users",
			"listIndexes characters",
			"createIndexes categories",
		}, startedCommands(mt))
	})

	mt.Run("reports other failures", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Name: "Unauthorized", Message: "not authorized"}))
		err := EnsureIndexes(context.Background(), mt.DB)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "create indexes on users")
	})
}
