package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the claims of a RoomChat session token.
type Payload struct {
	// StandardClaims carries expiry, issue time and issuer, validated on parse.
	jwt.StandardClaims

	// Username is the registered account the token was issued to.
	Username string `json:"username"`
}
