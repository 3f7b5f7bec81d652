package model

// User 用户表 账号信息由认证边界维护，核心模块只读
type User struct {
	BaseModel
	Username  string `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email     string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password  string `gorm:"size:100;not null" json:"-"`
	AvatarURL string `gorm:"size:500" json:"avatarUrl"`
}

func (User) TableName() string {
	return "users"
}
