package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPlayersOrderedByRanking(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, nil)

	mid := seedUser(t, repo, "mia", 1200)
	top := seedUser(t, repo, "theo", 1500)
	low := seedUser(t, repo, "rui", 900)

	players, err := svc.ListPlayers(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, players, 3)
	assert.Equal(t, top.ID, players[0].ID)
	assert.Equal(t, mid.ID, players[1].ID)
	assert.Equal(t, low.ID, players[2].ID)

	page, err := svc.ListPlayers(context.Background(), 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, mid.ID, page[0].ID)
	assert.Equal(t, low.ID, page[1].ID)
}

func TestListPlayersEmpty(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), nil)

	players, err := svc.ListPlayers(context.Background(), 20, 0)
	require.NoError(t, err)
	assert.Empty(t, players)
}
