package token

import "github.com/golang-jwt/jwt/v5"

type Claim struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	jwt.RegisteredClaims
}
