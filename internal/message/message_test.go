package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireStripsIdentifiers(t *testing.T) {
	turns := []Turn{
		NewTurn(RoleAssistant, Greeting),
		NewTurn(RoleUser, "merhaba"),
	}
	require.NotEqual(t, turns[0].ID, turns[1].ID)

	wire := Wire(turns)
	assert.Equal(t, []WireTurn{
		{Role: RoleAssistant, Content: Greeting},
		{Role: RoleUser, Content: "merhaba"},
	}, wire)
}

func TestUtteranceKeepsOrigin(t *testing.T) {
	u := NewUtterance("YouTube aç", OriginTranscribed)
	assert.Equal(t, "YouTube aç", u.Text())
	assert.Equal(t, OriginTranscribed, u.Origin())
}
