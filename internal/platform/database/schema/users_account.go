package schema

// UsersAccountTable represents the 'users.account' table
type UsersAccountTable struct {
	Table            string
	ID               string
	Username         string
	Email            string
	PasswordHash     string
	Role             string
	RestrictedAccess string
	CreatedAt        string
	UpdatedAt        string
}

// UsersAccount is the schema definition for users.account
var UsersAccount = UsersAccountTable{
	Table:            "users.account",
	ID:               "id",
	Username:         "username",
	Email:            "email",
	PasswordHash:     "passwordhash",
	Role:             "role",
	RestrictedAccess: "restrictedaccess",
	CreatedAt:        "createdat",
	UpdatedAt:        "updatedat",
}
