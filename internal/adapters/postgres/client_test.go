package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greencart/internal/adapters/config"
	"greencart/pkg/errors"
)

func TestNewClient_RejectsIncompleteConfigBeforeDialing(t *testing.T) {
	client, err := NewClient(config.PostgresConfig{Host: "db", Port: 5432})
	require.Error(t, err)
	assert.Nil(t, client)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "POSTGRES_USER")
}
