package auth

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	Id       string
	Name     string
	Password []byte
}

func NewUser(name, password string) *User {
	// password max size is 72 bytes because of bcrypt limit
	hashed_password, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return &User{uuid.New().String(), name, hashed_password}
}

func (u *User) ValidateUser(password string) bool {
	return bcrypt.CompareHashAndPassword(u.Password, []byte(password)) == nil
}
