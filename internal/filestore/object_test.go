package filestore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectInfo_JSON(t *testing.T) {
	data, err := json.Marshal(ObjectInfo{Bucket: "tablecompare-reports", Key: "nightly/run.json.gz", Size: 42})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "tablecompare-reports", got["bucket"])
	assert.Equal(t, "nightly/run.json.gz", got["key"])
	assert.Equal(t, float64(42), got["size"])
	assert.NotContains(t, got, "etag")
}
