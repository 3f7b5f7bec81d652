package service

import (
	"errors"
	"time"

	"chatlink_backend/internal/model"
	"chatlink_backend/internal/repository"
	"chatlink_backend/internal/util"
	"chatlink_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GroupSummary 群组视图，含实时成员数
type GroupSummary struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	AvatarURL     string    `json:"avatarUrl"`
	OwnerID       uint      `json:"ownerId"`
	OwnerUsername string    `json:"ownerUsername"`
	MemberCount   int64     `json:"memberCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// GroupMemberInfo 成员视图
type GroupMemberInfo struct {
	ID        uint                  `json:"id"`
	UserID    uint                  `json:"userId"`
	Username  string                `json:"username"`
	AvatarURL string                `json:"avatarUrl"`
	Role      model.GroupMemberRole `json:"role"`
	JoinedAt  time.Time             `json:"joinedAt"`
}

type GroupService struct {
	GroupRepo *repository.GroupRepository
	UserRepo  *repository.UserRepository
}

func NewGroupService(groupRepo *repository.GroupRepository, userRepo *repository.UserRepository) *GroupService {
	return &GroupService{
		GroupRepo: groupRepo,
		UserRepo:  userRepo,
	}
}

// CreateGroup 建群。群主成员行和群同事务写入；初始成员逐个尽力添加，
// 加不进去的（不存在、重复）直接跳过，不影响建群本身。
func (s *GroupService) CreateGroup(ownerID uint, name, description string, memberIDs []uint) (*GroupSummary, error) {
	if ok, err := s.UserRepo.Exists(ownerID); err != nil {
		return nil, err
	} else if !ok {
		return nil, util.ErrUserNotFound
	}

	group := &model.Group{
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
	}
	if err := s.GroupRepo.CreateWithOwner(group); err != nil {
		return nil, err
	}

	for _, id := range memberIDs {
		if id == ownerID {
			continue
		}
		if _, err := s.addMember(group.ID, id); err != nil {
			logger.Log.Debug("skip initial group member",
				zap.Uint("groupId", group.ID), zap.Uint("userId", id), zap.Error(err))
		}
	}

	return s.summarize(group.ID)
}

// GetGroup 群详情，仅成员可见
func (s *GroupService) GetGroup(groupID, callerID uint) (*GroupSummary, error) {
	if err := s.requireMember(groupID, callerID); err != nil {
		return nil, err
	}
	return s.summarize(groupID)
}

// Members 成员列表，仅成员可见
func (s *GroupService) Members(groupID, callerID uint) ([]GroupMemberInfo, error) {
	if err := s.requireMember(groupID, callerID); err != nil {
		return nil, err
	}

	members, err := s.GroupRepo.Members(groupID)
	if err != nil {
		return nil, err
	}
	return toMemberInfos(members), nil
}

// InviteMembers 任何成员都可以拉人；失败的静默跳过，只返回实际加入的
func (s *GroupService) InviteMembers(groupID, inviterID uint, userIDs []uint) ([]GroupMemberInfo, error) {
	if err := s.requireMember(groupID, inviterID); err != nil {
		return nil, err
	}

	added := make([]GroupMemberInfo, 0, len(userIDs))
	for _, id := range userIDs {
		member, err := s.addMember(groupID, id)
		if err != nil {
			continue
		}
		added = append(added, toMemberInfo(*member))
	}
	return added, nil
}

// RemoveMember 只有群主和管理员可以移除成员；群主任何人都动不了
func (s *GroupService) RemoveMember(groupID, removerID, targetUserID uint) error {
	group, err := s.findGroup(groupID)
	if err != nil {
		return err
	}

	remover, err := s.GroupRepo.GetMember(groupID, removerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotGroupMember
		}
		return err
	}
	if !remover.Role.CanRemoveMembers() {
		return util.ErrAdminRequired
	}

	if targetUserID == group.OwnerID {
		return util.ErrCannotRemoveOwner
	}

	if ok, err := s.GroupRepo.IsMember(groupID, targetUserID); err != nil {
		return err
	} else if !ok {
		return util.ErrTargetNotMember
	}

	return s.GroupRepo.RemoveMember(groupID, targetUserID)
}

// LeaveGroup 群主必须先转让才能退
func (s *GroupService) LeaveGroup(groupID, userID uint) error {
	group, err := s.findGroup(groupID)
	if err != nil {
		return err
	}

	if group.OwnerID == userID {
		return util.ErrOwnerCannotLeave
	}

	if ok, err := s.GroupRepo.IsMember(groupID, userID); err != nil {
		return err
	} else if !ok {
		return util.ErrNotGroupMember
	}

	return s.GroupRepo.RemoveMember(groupID, userID)
}

// TransferOwnership 群主把群转给另一名成员
func (s *GroupService) TransferOwnership(groupID, ownerID, newOwnerID uint) error {
	group, err := s.findGroup(groupID)
	if err != nil {
		return err
	}
	if group.OwnerID != ownerID {
		return util.ErrOwnerRequired
	}
	if ownerID == newOwnerID {
		return util.ErrAlreadyMember
	}

	if ok, err := s.GroupRepo.IsMember(groupID, newOwnerID); err != nil {
		return err
	} else if !ok {
		return util.ErrTargetNotMember
	}

	return s.GroupRepo.TransferOwnership(groupID, ownerID, newOwnerID)
}

// GroupsForUser 用户的群列表，最近活跃的在前
func (s *GroupService) GroupsForUser(userID uint) ([]GroupSummary, error) {
	groups, err := s.GroupRepo.GroupsForUser(userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		count, err := s.GroupRepo.MemberCount(g.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, newGroupSummary(&g, count))
	}
	return summaries, nil
}

func (s *GroupService) IsMember(groupID, userID uint) (bool, error) {
	return s.GroupRepo.IsMember(groupID, userID)
}

func (s *GroupService) addMember(groupID, userID uint) (*model.GroupMember, error) {
	if ok, err := s.UserRepo.Exists(userID); err != nil {
		return nil, err
	} else if !ok {
		return nil, util.ErrUserNotFound
	}

	member := &model.GroupMember{
		GroupID: groupID,
		UserID:  userID,
		Role:    model.RoleMember,
	}
	if err := s.GroupRepo.AddMember(member); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrAlreadyMember
		}
		return nil, err
	}
	return s.GroupRepo.GetMember(groupID, userID)
}

func (s *GroupService) requireMember(groupID, userID uint) error {
	if _, err := s.findGroup(groupID); err != nil {
		return err
	}
	ok, err := s.GroupRepo.IsMember(groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return util.ErrNotGroupMember
	}
	return nil
}

func (s *GroupService) findGroup(groupID uint) (*model.Group, error) {
	group, err := s.GroupRepo.FindByID(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrGroupNotFound
		}
		return nil, err
	}
	return group, nil
}

func (s *GroupService) summarize(groupID uint) (*GroupSummary, error) {
	group, err := s.findGroup(groupID)
	if err != nil {
		return nil, err
	}
	count, err := s.GroupRepo.MemberCount(groupID)
	if err != nil {
		return nil, err
	}
	summary := newGroupSummary(group, count)
	return &summary, nil
}

func newGroupSummary(g *model.Group, memberCount int64) GroupSummary {
	return GroupSummary{
		ID:            g.ID,
		Name:          g.Name,
		Description:   g.Description,
		AvatarURL:     g.AvatarURL,
		OwnerID:       g.OwnerID,
		OwnerUsername: g.Owner.Username,
		MemberCount:   memberCount,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}

func toMemberInfo(m model.GroupMember) GroupMemberInfo {
	return GroupMemberInfo{
		ID:        m.ID,
		UserID:    m.UserID,
		Username:  m.User.Username,
		AvatarURL: m.User.AvatarURL,
		Role:      m.Role,
		JoinedAt:  m.JoinedAt,
	}
}

func toMemberInfos(members []model.GroupMember) []GroupMemberInfo {
	infos := make([]GroupMemberInfo, 0, len(members))
	for _, m := range members {
		infos = append(infos, toMemberInfo(m))
	}
	return infos
}
