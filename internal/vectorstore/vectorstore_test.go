package vectorstore

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
)

func TestDistanceOfMapsKnownMetrics(t *testing.T) {
	assert.Equal(t, qdrant.Distance_Cosine, distanceOf("cosine"))
	assert.Equal(t, qdrant.Distance_Dot, distanceOf("dot"))
	assert.Equal(t, qdrant.Distance_Euclid, distanceOf("euclidean"))
	assert.Equal(t, qdrant.Distance_Cosine, distanceOf("unknown"), "unrecognized metrics default to cosine")
}

func TestNamespaceFilterScopesToOneNamespace(t *testing.T) {
	filter := namespaceFilter("ws_abc123")
	assert.Len(t, filter.Must, 1)

	field := filter.Must[0].GetField()
	assert.Equal(t, "namespace", field.Key)
	assert.Equal(t, "ws_abc123", field.Match.GetKeyword())
}
