package models

// User struct matches the document in MongoDB. Roles: "editor", "reviewer",
// "admin".
type User struct {
	Email    string `bson:"email" json:"email"`
	Name     string `bson:"name" json:"name"`
	Password string `bson:"password" json:"-"`
	Role     string `bson:"role" json:"role"`
	Status   string `bson:"status" json:"status"`
}
