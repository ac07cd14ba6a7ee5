package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/model-workshop/internal/config"
)

// ClientClaims identificam o navegador (cliente) dono do armazenamento persistido.
type ClientClaims struct {
	ClientID string `json:"cid"`
	jwt.RegisteredClaims
}

// GenerateClientToken gera um JWT para o cliente.
func GenerateClientToken(clientID string, cfg *config.Config) (string, time.Time, error) {
	exp := time.Now().Add(cfg.ClientTokenTTL)
	claims := &ClientClaims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseClientToken valida e retorna os claims de um token de cliente.
func ParseClientToken(tokenStr string, cfg *config.Config) (*ClientClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &ClientClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*ClientClaims); ok && token.Valid && claims.ClientID != "" {
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}
