// Package token отвечает за выпуск и проверку bearer-токенов доступа.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmeshcher/energia-vis/internal/model"
)

// TTL задаёт срок действия выпущенного токена.
const TTL = 7 * 24 * time.Hour

// ErrInvalidToken возвращается для просроченного, повреждённого или неподписанного токена.
var ErrInvalidToken = errors.New("invalid token")

// Claims содержит полезную нагрузку токена: идентификатор, почту и роль пользователя.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64      `json:"userId"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
}

// Manager выпускает и проверяет токены, подписанные HMAC-SHA256.
type Manager struct {
	secretKey []byte
}

// NewManager создаёт Manager с указанным секретным ключом подписи.
func NewManager(secret string) *Manager {
	return &Manager{secretKey: []byte(secret)}
}

// Issue выпускает токен для пользователя со сроком действия TTL.
func (m *Manager) Issue(user *model.User) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		},
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Parse проверяет подпись и срок действия токена и возвращает его полезную нагрузку.
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secretKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
