package service

import (
	"errors"
	"time"

	"chatlink_backend/internal/model"
	"chatlink_backend/internal/repository"
	"chatlink_backend/internal/util"

	"gorm.io/gorm"
)

// FriendInfo 好友视图：对端用户信息加上关系建立时间
type FriendInfo struct {
	ID        uint                   `json:"id"`
	Username  string                 `json:"username"`
	AvatarURL string                 `json:"avatarUrl"`
	Status    model.FriendshipStatus `json:"status"`
	CreatedAt time.Time              `json:"createdAt"`
}

// FriendRequestInfo 待处理申请视图：展示发起方信息
type FriendRequestInfo struct {
	ID        uint                   `json:"id"`
	UserID    uint                   `json:"userId"`
	Username  string                 `json:"username"`
	AvatarURL string                 `json:"avatarUrl"`
	Status    model.FriendshipStatus `json:"status"`
	CreatedAt time.Time              `json:"createdAt"`
}

type FriendshipService struct {
	FriendRepo *repository.FriendshipRepository
	UserRepo   *repository.UserRepository
}

func NewFriendshipService(friendRepo *repository.FriendshipRepository, userRepo *repository.UserRepository) *FriendshipService {
	return &FriendshipService{
		FriendRepo: friendRepo,
		UserRepo:   userRepo,
	}
}

// SendRequest 发起好友申请。
// 同一对用户只允许存在一行关系；对方已有待处理的反向申请时返回可区分的冲突，
// 提示调用方去处理收到的申请而不是再发一条。
func (s *FriendshipService) SendRequest(requesterID, addresseeID uint) (*model.Friendship, error) {
	if requesterID == addresseeID {
		return nil, util.ErrSelfFriend
	}

	for _, id := range []uint{requesterID, addresseeID} {
		ok, err := s.UserRepo.Exists(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, util.ErrUserNotFound
		}
	}

	existing, err := s.FriendRepo.FindByPair(requesterID, addresseeID)
	if err == nil {
		switch {
		case existing.Status == model.FriendshipPending && existing.AddresseeID == requesterID:
			return nil, util.ErrIncomingRequest
		case existing.Status == model.FriendshipPending:
			return nil, util.ErrRequestAlreadySent
		default:
			return nil, util.ErrFriendshipExists
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	f := &model.Friendship{
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      model.FriendshipPending,
	}
	if err := s.FriendRepo.Create(f); err != nil {
		// 预检查和插入之间被并发抢先，唯一索引兜底，报一样的冲突
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrFriendshipExists
		}
		return nil, err
	}

	return s.FriendRepo.FindByID(f.ID)
}

// Respond 接受或拒绝申请。PENDING 是唯一可迁移状态，处理过的申请不允许再处理。
func (s *FriendshipService) Respond(requestID, userID uint, accept bool) (*model.Friendship, error) {
	f, err := s.FriendRepo.FindByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrRequestNotFound
		}
		return nil, err
	}

	if f.AddresseeID != userID {
		return nil, util.ErrNotAddressee
	}

	if f.Status != model.FriendshipPending {
		return nil, util.ErrRequestHandled
	}

	status := model.FriendshipRejected
	if accept {
		status = model.FriendshipAccepted
	}
	if err := s.FriendRepo.UpdateStatus(f.ID, status); err != nil {
		return nil, err
	}

	if accept {
		s.FriendRepo.InvalidateFriendCache(f.RequesterID, f.AddresseeID)
	}

	return s.FriendRepo.FindByID(f.ID)
}

// Friends 全部已接受的好友，带上关系建立时间
func (s *FriendshipService) Friends(userID uint) ([]FriendInfo, error) {
	fs, err := s.FriendRepo.AcceptedByUser(userID)
	if err != nil {
		return nil, err
	}

	infos := make([]FriendInfo, 0, len(fs))
	for _, f := range fs {
		friend := f.Requester
		if f.RequesterID == userID {
			friend = f.Addressee
		}
		infos = append(infos, FriendInfo{
			ID:        friend.ID,
			Username:  friend.Username,
			AvatarURL: friend.AvatarURL,
			Status:    model.FriendshipAccepted,
			CreatedAt: f.CreatedAt,
		})
	}
	return infos, nil
}

// PendingIncoming 收到的待处理申请
func (s *FriendshipService) PendingIncoming(userID uint) ([]FriendRequestInfo, error) {
	fs, err := s.FriendRepo.PendingIncoming(userID)
	if err != nil {
		return nil, err
	}

	infos := make([]FriendRequestInfo, 0, len(fs))
	for _, f := range fs {
		infos = append(infos, FriendRequestInfo{
			ID:        f.ID,
			UserID:    f.RequesterID,
			Username:  f.Requester.Username,
			AvatarURL: f.Requester.AvatarURL,
			Status:    f.Status,
			CreatedAt: f.CreatedAt,
		})
	}
	return infos, nil
}

// Remove 删除关系行，退好友和撤回申请共用
func (s *FriendshipService) Remove(userID, otherID uint) error {
	affected, err := s.FriendRepo.DeletePair(userID, otherID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return util.ErrFriendshipNotFound
	}
	return nil
}

func (s *FriendshipService) AreFriends(userID, otherID uint) (bool, error) {
	return s.FriendRepo.AreFriends(userID, otherID)
}
