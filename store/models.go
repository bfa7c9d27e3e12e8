package store

import (
	"time"

	"github.com/kbukum/authkit/database"
)

// Provider names.
const (
	ProviderPassword = "PASSWORD"
	ProviderGoogle   = "GOOGLE"
	ProviderGitHub   = "GITHUB"
)

// Role names.
const (
	RoleAdmin  = "ADMIN"
	RoleNormal = "NORMAL"
)

// Account is an identity record.
type Account struct {
	database.BaseModel
	Username      string `gorm:"size:100;not null" json:"username"`
	Email         string `gorm:"size:320;not null;uniqueIndex" json:"email"`
	EmailVerified bool   `gorm:"not null;default:false" json:"email_verified"`
	IsActive      bool   `gorm:"not null;default:true" json:"is_active"`
	Bio           string `gorm:"type:text" json:"bio"`
	Avatar        string `gorm:"size:1024" json:"avatar"`
}

// Provider links an account to one authentication method. Identify holds the
// password hash for PASSWORD and the external subject id otherwise.
type Provider struct {
	database.BaseModel
	AccountID string `gorm:"size:36;not null;uniqueIndex:idx_provider_account" json:"account_id"`
	Provider  string `gorm:"size:20;not null;uniqueIndex:idx_provider_account;uniqueIndex:idx_provider_subject" json:"provider"`
	Identify  string `gorm:"size:255;not null;uniqueIndex:idx_provider_subject" json:"-"`
}

// Role is the optional single role of an account.
type Role struct {
	database.BaseModel
	AccountID string `gorm:"size:36;not null;uniqueIndex" json:"account_id"`
	RoleName  string `gorm:"size:50;not null" json:"role_name"`
}

// Session is one live refresh-credential lineage.
type Session struct {
	database.BaseModel
	AccountID  string    `gorm:"size:36;not null;index" json:"account_id"`
	JTI        string    `gorm:"column:jti;size:64;not null;uniqueIndex" json:"-"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expires_at"`
	IPAddress  string    `gorm:"size:64" json:"ip_address"`
	UserAgent  string    `gorm:"size:512" json:"user_agent"`
	DeviceType string    `gorm:"size:20" json:"device_type"`
}

// Models lists every persisted type for auto-migration.
func Models() []interface{} {
	return []interface{}{&Account{}, &Provider{}, &Role{}, &Session{}}
}
