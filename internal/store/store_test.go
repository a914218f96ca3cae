package store

import (
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
)

func TestTopLevelPaths(t *testing.T) {
	paths := topLevelPaths(map[string]interface{}{
		"reviewsByState": map[string]interface{}{"IL": 2, "OH": 1},
		"reviewCount":    3,
		"statesVisited":  []string{"IL", "OH"},
	})

	assert.Equal(t, []firestore.FieldPath{{"reviewCount"}, {"reviewsByState"}, {"statesVisited"}}, paths)
}
