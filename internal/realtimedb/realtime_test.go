package realtimedb

import (
	"context"
	"testing"

	"firebase.google.com/go/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	Count int `json:"count"`
}

func TestMockClientTransaction(t *testing.T) {
	ctx := context.Background()
	client := &MockClient{}

	increment := func(tn db.TransactionNode) (interface{}, error) {
		var c counter
		if err := tn.Unmarshal(&c); err != nil {
			return nil, err
		}
		c.Count++
		return c, nil
	}

	require.NoError(t, client.RunTransaction(ctx, "counters/runs", increment))
	require.NoError(t, client.RunTransaction(ctx, "counters/runs", increment))

	assert.Equal(t, counter{Count: 2}, client.Last("counters/runs"))
	assert.Len(t, client.Values["counters/runs"], 2)
	assert.Nil(t, client.Last("counters/other"))
}
