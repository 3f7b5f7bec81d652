package util

import "errors"

// 服务层统一返回下列哨兵错误，调用方用 errors.Is 分支，HTTP 层在 response.go 里统一换算状态码。
// 缓存/在线状态这类尽力而为的副作用不会返回这些错误，失败只记日志。
var (
	// 资源不存在
	ErrUserNotFound       = errors.New("用户不存在")
	ErrGroupNotFound      = errors.New("群组不存在")
	ErrRequestNotFound    = errors.New("好友申请不存在")
	ErrFriendshipNotFound = errors.New("好友关系不存在")

	// 好友状态机
	ErrSelfFriend         = errors.New("不能添加自己为好友")
	ErrFriendshipExists   = errors.New("好友关系已存在")
	ErrRequestAlreadySent = errors.New("好友申请已发送，请等待对方处理")
	ErrIncomingRequest    = errors.New("对方已向你发送好友申请，请先处理该申请")
	ErrRequestHandled     = errors.New("申请已处理")
	ErrNotAddressee       = errors.New("无权处理此申请")
	ErrNotFriends         = errors.New("你们还不是好友")

	// 群组权限
	ErrNotGroupMember    = errors.New("你不是该群成员")
	ErrTargetNotMember   = errors.New("目标用户不是群成员")
	ErrAlreadyMember     = errors.New("该用户已是群成员")
	ErrAdminRequired     = errors.New("只有群主或管理员可以移除成员")
	ErrOwnerRequired     = errors.New("只有群主可以执行此操作")
	ErrCannotRemoveOwner = errors.New("不能移除群主")
	ErrOwnerCannotLeave  = errors.New("群主不能直接退出群聊，请先转让群主")

	// 认证边界
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrUsernameTaken      = errors.New("该用户名已被使用")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")

	// 参数校验
	ErrEmptyContent = errors.New("消息内容不能为空")
)
