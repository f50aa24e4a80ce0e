package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the access token payload. UserID holds the identity
// provider uid, matched against users.external_id.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
