package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	role, err := ParseRole("primary")
	require.NoError(t, err)
	assert.Equal(t, RolePrimary, role)

	role, err = ParseRole("secondary")
	require.NoError(t, err)
	assert.Equal(t, RoleSecondary, role)

	_, err = ParseRole("laptop")
	assert.Error(t, err)

	_, err = ParseRole("")
	assert.Error(t, err)
}

func TestRolePeer(t *testing.T) {
	assert.Equal(t, RoleSecondary, RolePrimary.Peer())
	assert.Equal(t, RolePrimary, RoleSecondary.Peer())
}

func TestEventConstructors(t *testing.T) {
	text := NewTextEvent("hello")
	assert.Equal(t, EventText, text.Kind())
	assert.Equal(t, "hello", text.Data())

	image := NewImageEvent("aGVsbG8=")
	assert.Equal(t, EventImage, image.Kind())
	assert.Equal(t, "aGVsbG8=", image.Data())
}

func TestEventZeroValueHasNoKind(t *testing.T) {
	var event Event
	assert.NotEqual(t, EventText, event.Kind())
	assert.NotEqual(t, EventImage, event.Kind())
}
