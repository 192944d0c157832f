// Package jwtdevice issues and validates the HS256 tokens carried by scanner
// stations. A token binds a request to a provisioned device ID so attendance
// writes are always attributable to a physical scanner.
package jwtdevice

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "scangate/pkg/domain-errors"
)

// Claims represents the JWT claims for scanner device tokens.
type Claims struct {
	DeviceID string `json:"device_id"`
	Station  string `json:"station"`
	jwt.RegisteredClaims
}

// Service handles device token creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey string, issuer string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// GenerateDeviceToken mints a token for a provisioned scanner. Used by the
// provisioning tooling and by tests.
func (s *Service) GenerateDeviceToken(deviceID, station string, expiresIn time.Duration) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		DeviceID: deviceID,
		Station:  station,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// ValidateToken parses and verifies a device token.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "device token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid device token")
	}

	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid device token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.DeviceID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid device token claims")
	}

	return claims, nil
}
