package chatroom

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/FotoVerite/protohack/internal/netsrv"
)

func TestValidName(t *testing.T) {
	assert.True(t, validName.MatchString("bob"))
	assert.True(t, validName.MatchString("Bob123"))
	assert.False(t, validName.MatchString(""))
	assert.False(t, validName.MatchString("has space"))
	assert.False(t, validName.MatchString("way-too-long-for-a-name123"))
}

func TestJoinRejectsDuplicateName(t *testing.T) {
	room := New(zerolog.Nop())
	assert.True(t, room.join("bob", &netsrv.Conn{}))
	assert.False(t, room.join("bob", &netsrv.Conn{}))
}

func TestNamesExcludesSelf(t *testing.T) {
	room := New(zerolog.Nop())
	room.join("bob", &netsrv.Conn{})
	room.join("alice", &netsrv.Conn{})

	names := room.names("bob")
	assert.ElementsMatch(t, []string{"alice"}, names)
}

func TestLeaveRemovesMember(t *testing.T) {
	room := New(zerolog.Nop())
	room.join("bob", &netsrv.Conn{})
	room.leave("bob")

	assert.Empty(t, room.names(""))
	assert.True(t, room.join("bob", &netsrv.Conn{}), "name should be free again after leave")
}
