package model

type Role string

const (
	RoleReader Role = "reader"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// User is the profile record owned by the identity collaborator. The core only reads it.
type User struct {
	ID          string `bson:"_id" json:"id"`
	Role        Role   `bson:"role" json:"role"`
	DisplayName string `bson:"displayName" json:"displayName"`
}

func (u User) CanSubmit() bool {
	return u.Role == RoleAdmin || u.Role == RoleEditor
}
