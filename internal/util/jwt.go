package util

import (
	"donation-backend/config"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func GenerateToken(userID int64) (string, error) {
	expire := config.AppConfig.JWTExpire
	if expire <= 0 {
		expire = 24 * time.Hour
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(expire).Unix(),
	})

	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// ValidateToken 返回令牌中的用户 ID 和过期时间
func ValidateToken(tokenString string) (int64, time.Time, error) {
	if tokenString == "" {
		return 0, time.Time{}, errors.New("令牌为空")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("不支持的签名算法")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return 0, time.Time{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, time.Time{}, errors.New("无效的令牌")
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, time.Time{}, errors.New("无效的用户ID")
	}

	var expiresAt time.Time
	if exp, ok := claims["exp"].(float64); ok {
		expiresAt = time.Unix(int64(exp), 0)
	}
	return int64(userID), expiresAt, nil
}
