package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HostClaims are JWT claims for host authentication
type HostClaims struct {
	HostID string `json:"host_id"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for host login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token     string    `json:"token"`
	HostID    string    `json:"host_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
