package service

import (
	"testing"

	"chatlink_backend/internal/model"
	"chatlink_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGroupOwnerMembership(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupService(t, db)
	owner := seedUser(t, db, "owner")
	m1 := seedUser(t, db, "m1")
	m2 := seedUser(t, db, "m2")

	// 初始成员里混入群主自己和不存在的用户，都被跳过
	g, err := svc.CreateGroup(owner.ID, "羽毛球", "周六活动", []uint{m1.ID, m2.ID, owner.ID, 9999})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, g.OwnerID)
	assert.Equal(t, int64(3), g.MemberCount)

	members, err := svc.Members(g.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, members, 3)

	// 群主行有且只有一行
	var ownerRows int
	for _, m := range members {
		if m.Role == model.RoleOwner {
			ownerRows++
			assert.Equal(t, owner.ID, m.UserID)
		}
	}
	assert.Equal(t, 1, ownerRows)
}

func TestGroupAccessRequiresMembership(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupService(t, db)
	owner := seedUser(t, db, "owner")
	outsider := seedUser(t, db, "outsider")

	g, err := svc.CreateGroup(owner.ID, "g", "", nil)
	require.NoError(t, err)

	_, err = svc.GetGroup(g.ID, outsider.ID)
	assert.ErrorIs(t, err, util.ErrNotGroupMember)
	_, err = svc.Members(g.ID, outsider.ID)
	assert.ErrorIs(t, err, util.ErrNotGroupMember)
	_, err = svc.GetGroup(9999, owner.ID)
	assert.ErrorIs(t, err, util.ErrGroupNotFound)
}

func TestInviteMembers(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupService(t, db)
	owner := seedUser(t, db, "owner")
	member := seedUser(t, db, "member")
	newcomer := seedUser(t, db, "newcomer")
	outsider := seedUser(t, db, "outsider")

	g, err := svc.CreateGroup(owner.ID, "g", "", []uint{member.ID})
	require.NoError(t, err)

	// 非成员不能邀请
	_, err = svc.InviteMembers(g.ID, outsider.ID, []uint{newcomer.ID})
	assert.ErrorIs(t, err, util.ErrNotGroupMember)

	// 普通成员可以邀请；已在群的和不存在的被跳过
	added, err := svc.InviteMembers(g.ID, member.ID, []uint{newcomer.ID, owner.ID, 9999})
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, newcomer.ID, added[0].UserID)
	assert.Equal(t, model.RoleMember, added[0].Role)
}

func TestRemoveMemberPermissions(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupService(t, db)
	owner := seedUser(t, db, "owner")
	member := seedUser(t, db, "member")
	victim := seedUser(t, db, "victim")

	g, err := svc.CreateGroup(owner.ID, "g", "", []uint{member.ID, victim.ID})
	require.NoError(t, err)

	// 普通成员无权移除
	err = svc.RemoveMember(g.ID, member.ID, victim.ID)
	assert.ErrorIs(t, err, util.ErrAdminRequired)

	// 任何人都不能移除群主，包括群主自己
	err = svc.RemoveMember(g.ID, owner.ID, owner.ID)
	assert.ErrorIs(t, err, util.ErrCannotRemoveOwner)

	// 群主移除普通成员
	require.NoError(t, svc.RemoveMember(g.ID, owner.ID, victim.ID))
	ok, err := svc.IsMember(g.ID, victim.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// 已不在群里
	err = svc.RemoveMember(g.ID, owner.ID, victim.ID)
	assert.ErrorIs(t, err, util.ErrTargetNotMember)
}

func TestLeaveGroup(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupService(t, db)
	owner := seedUser(t, db, "owner")
	member := seedUser(t, db, "member")

	g, err := svc.CreateGroup(owner.ID, "g", "", []uint{member.ID})
	require.NoError(t, err)

	// 群主必须先转让才能退
	err = svc.LeaveGroup(g.ID, owner.ID)
	assert.ErrorIs(t, err, util.ErrOwnerCannotLeave)

	require.NoError(t, svc.LeaveGroup(g.ID, member.ID))
	ok, err := svc.IsMember(g.ID, member.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// 退出后可以重新加入
	_, err = svc.InviteMembers(g.ID, owner.ID, []uint{member.ID})
	require.NoError(t, err)
}

func TestTransferOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupService(t, db)
	owner := seedUser(t, db, "owner")
	member := seedUser(t, db, "member")
	outsider := seedUser(t, db, "outsider")

	g, err := svc.CreateGroup(owner.ID, "g", "", []uint{member.ID})
	require.NoError(t, err)

	// 只有群主能转让
	err = svc.TransferOwnership(g.ID, member.ID, owner.ID)
	assert.ErrorIs(t, err, util.ErrOwnerRequired)

	// 接收方必须已在群内
	err = svc.TransferOwnership(g.ID, owner.ID, outsider.ID)
	assert.ErrorIs(t, err, util.ErrTargetNotMember)

	require.NoError(t, svc.TransferOwnership(g.ID, owner.ID, member.ID))

	got, err := svc.GetGroup(g.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, member.ID, got.OwnerID)

	// 原群主降级后可以退出
	require.NoError(t, svc.LeaveGroup(g.ID, owner.ID))
}
