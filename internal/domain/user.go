package domain

// Roles a user may hold
const (
	RoleUser  = "user"  // Regular customer
	RoleAdmin = "admin" // Back-office operator
)

// User Model
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`                                   // Primary key
	Username string `gorm:"unique;not null" json:"username"`                        // Unique username
	Password string `gorm:"not null" json:"-"`                                      // Hashed password
	Role     string `gorm:"default:user" json:"role"`                               // Role: user or admin
	Ledger   Ledger `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // One-to-one relationship with Ledger
}
