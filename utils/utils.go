package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TenantClaims identifies the calling company and user.
type TenantClaims struct {
	CompanyID string `json:"company_id"`
	UserID    string `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateJWT issues an HS256 access token for a company user.
func GenerateJWT(secret, companyID, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TenantClaims{
		CompanyID: companyID,
		UserID:    userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// ValidateJWT parses and validates a token string and returns its tenant claims.
func ValidateJWT(secret, tokenStr string) (*TenantClaims, error) {
	claims := &TenantClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("token parsing error: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.CompanyID == "" {
		return nil, errors.New("token has no company_id claim")
	}

	return claims, nil
}
