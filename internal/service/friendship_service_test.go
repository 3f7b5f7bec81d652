package service

import (
	"testing"

	"chatlink_backend/internal/model"
	"chatlink_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendRequestAndAccept(t *testing.T) {
	db := newTestDB(t)
	svc := newFriendshipService(t, db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	f, err := svc.SendRequest(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipPending, f.Status)
	assert.Equal(t, alice.ID, f.RequesterID)

	// 申请期间还不是好友
	ok, err := svc.AreFriends(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// 对方能看到待处理申请
	pending, err := svc.PendingIncoming(bob.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, alice.ID, pending[0].UserID)
	assert.Equal(t, "alice", pending[0].Username)

	accepted, err := svc.Respond(f.ID, bob.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipAccepted, accepted.Status)

	// 双方的好友列表都能看到对方
	friendsOfAlice, err := svc.Friends(alice.ID)
	require.NoError(t, err)
	require.Len(t, friendsOfAlice, 1)
	assert.Equal(t, bob.ID, friendsOfAlice[0].ID)

	friendsOfBob, err := svc.Friends(bob.ID)
	require.NoError(t, err)
	require.Len(t, friendsOfBob, 1)
	assert.Equal(t, alice.ID, friendsOfBob[0].ID)
}

func TestSendRequestValidations(t *testing.T) {
	db := newTestDB(t)
	svc := newFriendshipService(t, db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	_, err := svc.SendRequest(alice.ID, alice.ID)
	assert.ErrorIs(t, err, util.ErrSelfFriend)

	_, err = svc.SendRequest(alice.ID, 9999)
	assert.ErrorIs(t, err, util.ErrUserNotFound)

	_, err = svc.SendRequest(alice.ID, bob.ID)
	require.NoError(t, err)

	// 重复发送
	_, err = svc.SendRequest(alice.ID, bob.ID)
	assert.ErrorIs(t, err, util.ErrRequestAlreadySent)

	// 对方反向发送时提示已有待处理的申请
	_, err = svc.SendRequest(bob.ID, alice.ID)
	assert.ErrorIs(t, err, util.ErrIncomingRequest)
}

func TestSendRequestAfterAccepted(t *testing.T) {
	db := newTestDB(t)
	svc := newFriendshipService(t, db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	f, err := svc.SendRequest(alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = svc.Respond(f.ID, bob.ID, true)
	require.NoError(t, err)

	_, err = svc.SendRequest(alice.ID, bob.ID)
	assert.ErrorIs(t, err, util.ErrFriendshipExists)
	_, err = svc.SendRequest(bob.ID, alice.ID)
	assert.ErrorIs(t, err, util.ErrFriendshipExists)
}

func TestRespondRules(t *testing.T) {
	db := newTestDB(t)
	svc := newFriendshipService(t, db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	f, err := svc.SendRequest(alice.ID, bob.ID)
	require.NoError(t, err)

	// 只有接收方能处理
	_, err = svc.Respond(f.ID, alice.ID, true)
	assert.ErrorIs(t, err, util.ErrNotAddressee)
	_, err = svc.Respond(f.ID, carol.ID, true)
	assert.ErrorIs(t, err, util.ErrNotAddressee)

	rejected, err := svc.Respond(f.ID, bob.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipRejected, rejected.Status)

	// 处理过的申请不允许再处理
	_, err = svc.Respond(f.ID, bob.ID, true)
	assert.ErrorIs(t, err, util.ErrRequestHandled)

	_, err = svc.Respond(9999, bob.ID, true)
	assert.ErrorIs(t, err, util.ErrRequestNotFound)
}

func TestRemoveFriendAllowsNewRequest(t *testing.T) {
	db := newTestDB(t)
	svc := newFriendshipService(t, db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	f, err := svc.SendRequest(alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = svc.Respond(f.ID, bob.ID, true)
	require.NoError(t, err)

	// 任意一方都能删除
	require.NoError(t, svc.Remove(bob.ID, alice.ID))

	ok, err := svc.AreFriends(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// 删除后可以重新发起
	_, err = svc.SendRequest(bob.ID, alice.ID)
	require.NoError(t, err)

	err = svc.Remove(alice.ID, 9999)
	assert.ErrorIs(t, err, util.ErrFriendshipNotFound)
}
