package service

import (
	"fmt"
	"testing"

	"chatlink_backend/internal/model"
	"chatlink_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendDirect(t *testing.T) {
	db := newTestDB(t)
	rdb, _ := newTestRedis(t)
	svc := newMessageService(t, db, rdb)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	msg, err := svc.SendDirect(alice.ID, bob.ID, "你好", model.MessageText)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, msg.SenderID)
	require.NotNil(t, msg.ReceiverID)
	assert.Equal(t, bob.ID, *msg.ReceiverID)
	assert.Nil(t, msg.GroupID)
	assert.False(t, msg.IsRead)
	assert.Equal(t, "alice", msg.Sender.Username)

	_, err = svc.SendDirect(alice.ID, bob.ID, "   ", model.MessageText)
	assert.ErrorIs(t, err, util.ErrEmptyContent)

	_, err = svc.SendDirect(alice.ID, 9999, "hi", model.MessageText)
	assert.ErrorIs(t, err, util.ErrUserNotFound)

	// 未知类型落库时已降级为 TEXT
	sticker, err := svc.SendDirect(alice.ID, bob.ID, "[doge]", model.NormalizeMessageType("sticker"))
	require.NoError(t, err)
	assert.Equal(t, model.MessageText, sticker.Type)
}

func TestDirectHistoryPagination(t *testing.T) {
	db := newTestDB(t)
	rdb, _ := newTestRedis(t)
	svc := newMessageService(t, db, rdb)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	for i := 0; i < 25; i++ {
		from, to := alice.ID, bob.ID
		if i%2 == 1 {
			from, to = bob.ID, alice.ID
		}
		_, err := svc.SendDirect(from, to, fmt.Sprintf("msg-%02d", i), model.MessageText)
		require.NoError(t, err)
	}

	page0, err := svc.DirectHistory(alice.ID, bob.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, page0, 10)
	// 第 0 页是最新的 10 条，页内按时间正序
	assert.Equal(t, "msg-15", page0[0].Content)
	assert.Equal(t, "msg-24", page0[9].Content)

	page1, err := svc.DirectHistory(alice.ID, bob.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page1, 10)
	// 相邻两页拼起来是连续序列，没有重叠没有空洞
	assert.Equal(t, "msg-05", page1[0].Content)
	assert.Equal(t, "msg-14", page1[9].Content)

	page2, err := svc.DirectHistory(alice.ID, bob.ID, 2, 10)
	require.NoError(t, err)
	require.Len(t, page2, 5)
	assert.Equal(t, "msg-00", page2[0].Content)

	// 两个方向的查询看到同一条时间线
	mirror, err := svc.DirectHistory(bob.ID, alice.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, mirror, 10)
	assert.Equal(t, page0[0].Content, mirror[0].Content)
}

func TestDirectHistoryCacheFallback(t *testing.T) {
	db := newTestDB(t)
	rdb, mr := newTestRedis(t)
	svc := newMessageService(t, db, rdb)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	for i := 0; i < 5; i++ {
		_, err := svc.SendDirect(alice.ID, bob.ID, fmt.Sprintf("msg-%d", i), model.MessageText)
		require.NoError(t, err)
	}

	// 缓存命中
	history, err := svc.DirectHistory(alice.ID, bob.ID, 0, 5)
	require.NoError(t, err)
	require.Len(t, history, 5)
	assert.Equal(t, "msg-0", history[0].Content)
	assert.Equal(t, "msg-4", history[4].Content)

	// 缓存丢失后回源数据库，结果一致
	mr.FlushAll()
	fromDB, err := svc.DirectHistory(alice.ID, bob.ID, 0, 5)
	require.NoError(t, err)
	require.Len(t, fromDB, 5)
	assert.Equal(t, "msg-0", fromDB[0].Content)
	assert.Equal(t, "msg-4", fromDB[4].Content)
}

func TestMarkReadAndUnreadCounts(t *testing.T) {
	db := newTestDB(t)
	rdb, _ := newTestRedis(t)
	svc := newMessageService(t, db, rdb)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	for i := 0; i < 3; i++ {
		_, err := svc.SendDirect(bob.ID, alice.ID, "from-bob", model.MessageText)
		require.NoError(t, err)
	}
	_, err := svc.SendDirect(carol.ID, alice.ID, "from-carol", model.MessageText)
	require.NoError(t, err)

	total, err := svc.UnreadTotal(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	fromBob, err := svc.UnreadFrom(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), fromBob)

	affected, err := svc.MarkRead(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)

	// 重复置读不再有影响
	affected, err = svc.MarkRead(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	total, err = svc.UnreadTotal(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestChatList(t *testing.T) {
	db := newTestDB(t)
	rdb, _ := newTestRedis(t)
	svc := newMessageService(t, db, rdb)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	_, err := svc.SendDirect(alice.ID, bob.ID, "hi bob", model.MessageText)
	require.NoError(t, err)
	_, err = svc.SendDirect(carol.ID, alice.ID, "hi alice 1", model.MessageText)
	require.NoError(t, err)
	_, err = svc.SendDirect(carol.ID, alice.ID, "hi alice 2", model.MessageText)
	require.NoError(t, err)

	items, err := svc.ChatList(alice.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// 最近有消息的会话排前面
	assert.Equal(t, carol.ID, items[0].User.ID)
	assert.Equal(t, "hi alice 2", items[0].LastMessage.Content)
	assert.Equal(t, int64(2), items[0].UnreadCount)

	// 自己发出的消息不计未读
	assert.Equal(t, bob.ID, items[1].User.ID)
	assert.Equal(t, "hi bob", items[1].LastMessage.Content)
	assert.Equal(t, int64(0), items[1].UnreadCount)

	empty, err := svc.ChatList(bob.ID)
	require.NoError(t, err)
	require.Len(t, empty, 1)
	assert.Equal(t, int64(1), empty[0].UnreadCount)
}

func TestSendGroupMessage(t *testing.T) {
	db := newTestDB(t)
	rdb, _ := newTestRedis(t)
	svc := newMessageService(t, db, rdb)
	gsvc := newGroupService(t, db)
	owner := seedUser(t, db, "owner")
	member := seedUser(t, db, "member")
	outsider := seedUser(t, db, "outsider")

	g, err := gsvc.CreateGroup(owner.ID, "g", "", []uint{member.ID})
	require.NoError(t, err)

	msg, err := svc.SendGroup(member.ID, g.ID, "大家好", model.MessageText)
	require.NoError(t, err)
	require.NotNil(t, msg.GroupID)
	assert.Equal(t, g.ID, *msg.GroupID)
	assert.Nil(t, msg.ReceiverID)

	_, err = svc.SendGroup(outsider.ID, g.ID, "潜入", model.MessageText)
	assert.ErrorIs(t, err, util.ErrNotGroupMember)

	_, err = svc.SendGroup(owner.ID, g.ID, "欢迎", model.MessageText)
	require.NoError(t, err)

	// 页内按时间正序
	history, err := svc.GroupHistory(member.ID, g.ID, 0, 20)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "大家好", history[0].Content)
	assert.Equal(t, "欢迎", history[1].Content)

	_, err = svc.GroupHistory(outsider.ID, g.ID, 0, 20)
	assert.ErrorIs(t, err, util.ErrNotGroupMember)
}

func TestRemovedMemberCannotSend(t *testing.T) {
	db := newTestDB(t)
	rdb, _ := newTestRedis(t)
	svc := newMessageService(t, db, rdb)
	gsvc := newGroupService(t, db)
	owner := seedUser(t, db, "owner")
	m1 := seedUser(t, db, "m1")

	g, err := gsvc.CreateGroup(owner.ID, "g", "", []uint{m1.ID})
	require.NoError(t, err)

	_, err = svc.SendGroup(m1.ID, g.ID, "还在群里", model.MessageText)
	require.NoError(t, err)

	require.NoError(t, gsvc.RemoveMember(g.ID, owner.ID, m1.ID))

	// 被移出后立刻失去发言权
	_, err = svc.SendGroup(m1.ID, g.ID, "已被移出", model.MessageText)
	assert.ErrorIs(t, err, util.ErrNotGroupMember)

	// 已发出的消息不受影响
	history, err := svc.GroupHistory(owner.ID, g.ID, 0, 20)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestGroupMessageBumpsRecency(t *testing.T) {
	db := newTestDB(t)
	rdb, _ := newTestRedis(t)
	svc := newMessageService(t, db, rdb)
	gsvc := newGroupService(t, db)
	owner := seedUser(t, db, "owner")

	g1, err := gsvc.CreateGroup(owner.ID, "first", "", nil)
	require.NoError(t, err)
	g2, err := gsvc.CreateGroup(owner.ID, "second", "", nil)
	require.NoError(t, err)

	groups, err := gsvc.GroupsForUser(owner.ID)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, g2.ID, groups[0].ID)

	// 老群来了新消息后排到前面
	_, err = svc.SendGroup(owner.ID, g1.ID, "bump", model.MessageText)
	require.NoError(t, err)

	groups, err = gsvc.GroupsForUser(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, g1.ID, groups[0].ID)
}
