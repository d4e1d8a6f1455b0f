package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindByID_MalformedIDIsAbsent(t *testing.T) {
	s, err := NewPGRepository(nil).FindByID(context.Background(), "shp-1")
	require.NoError(t, err)
	assert.Nil(t, s)
}
