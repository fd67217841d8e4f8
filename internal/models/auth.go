package models

import "github.com/golang-jwt/jwt/v5"

const AdminRole = "admin"

// AdminClaims are carried by tokens presented to the administrative routes.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
