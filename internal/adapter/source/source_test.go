package source

import (
	"testing"

	"github.com/mmcdole/podcasts/internal/adapter"
	"github.com/mmcdole/podcasts/internal/adapter/source/listennotes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	cfg := adapter.DefaultConfig().Source

	client, err := NewClient(&cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &listennotes.Client{}, client)
}

func TestNewClient_Errors(t *testing.T) {
	_, err := NewClient(nil, nil)
	assert.Error(t, err)

	_, err = NewClient(&adapter.SourceConfig{Type: adapter.SourceTypeListenNotes}, nil)
	assert.ErrorContains(t, err, "URL is required")

	_, err = NewClient(&adapter.SourceConfig{Type: "itunes", URL: "http://localhost"}, nil)
	assert.ErrorContains(t, err, "unknown source type")
}
