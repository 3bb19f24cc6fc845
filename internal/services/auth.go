package services

import (
	"errors"
	"strings"
	"time"

	"poker-planning-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	db        *gorm.DB
	jwtSecret []byte
}

func NewAuthService(db *gorm.DB, jwtSecret string) *AuthService {
	return &AuthService{db: db, jwtSecret: []byte(jwtSecret)}
}

func (s *AuthService) Register(username, password string) (string, error) {
	var existing models.User
	if err := s.db.Where("username = ?", username).First(&existing).Error; err == nil {
		return "", errors.New("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	user := models.User{
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.db.Create(&user).Error; err != nil {
		return "", err
	}

	return s.GenerateToken(user.ID)
}

func (s *AuthService) Login(username, password string) (string, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return "", errors.New("invalid credentials")
	}
	if user.IsGuest {
		return "", errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	return s.GenerateToken(user.ID)
}

// Guest creates an anonymous user so people can join a room without an
// account. The display name gets a short suffix to keep usernames unique.
func (s *AuthService) Guest(name string) (string, *models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, models.InvalidState("guest name is required")
	}

	user := models.User{
		Username: name + "#" + uuid.NewString()[:8],
		IsGuest:  true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return "", nil, err
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

func (s *AuthService) GenerateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(7 * 24 * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) ValidateToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, models.ErrNotAuthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, models.ErrNotAuthenticated
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, models.ErrNotAuthenticated
	}

	return uint(userIDFloat), nil
}
