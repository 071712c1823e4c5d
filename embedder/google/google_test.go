package google_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/becomeliminal/cortica-go/core"
	"github.com/becomeliminal/cortica-go/embedder/google"
)

func TestNewEmbedder_RequiresKey(t *testing.T) {
	_, err := google.NewEmbedder(context.Background())
	assert.True(t, core.IsConfiguration(err))
}
