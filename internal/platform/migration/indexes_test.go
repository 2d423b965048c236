// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

/*
TestCatalogIndexes covers the tag filter and the newest-first sort.
*/
func TestCatalogIndexes(t *testing.T) {
	models := catalogIndexes()
	require.Len(t, models, 2)

	assert.Equal(t, bson.D{{Key: "tags", Value: 1}}, models[0].Keys)
	assert.Equal(t, bson.D{{Key: "dateAdded", Value: -1}, {Key: "_id", Value: 1}}, models[1].Keys)
}
