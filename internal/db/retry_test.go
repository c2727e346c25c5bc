package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func duplicateKeyError() error {
	return mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}},
	}
}

func TestWithRetriesSucceedsAfterDuplicates(t *testing.T) {
	calls := 0
	op := func() error {
		calls++
		if calls < 3 {
			return duplicateKeyError()
		}
		return nil
	}

	err := WithRetries(op, 3, IsMongoDuplicateKeyError)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetriesGivesUpEventually(t *testing.T) {
	calls := 0
	op := func() error {
		calls++
		return duplicateKeyError()
	}

	err := WithRetries(op, 2, IsMongoDuplicateKeyError)
	require.Error(t, err)
	assert.True(t, IsMongoDuplicateKeyError(err))
	assert.Equal(t, 3, calls, "initial attempt plus two retries")
}

func TestWithRetriesDoesNotRetryOtherErrors(t *testing.T) {
	calls := 0
	boom := errors.New("connection reset")
	op := func() error {
		calls++
		return boom
	}

	err := WithRetries(op, 3, IsMongoDuplicateKeyError)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestIsMongoDuplicateKeyError(t *testing.T) {
	assert.True(t, IsMongoDuplicateKeyError(duplicateKeyError()))
	assert.False(t, IsMongoDuplicateKeyError(errors.New("something else")))
	assert.False(t, IsMongoDuplicateKeyError(mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 121}},
	}))
}
