package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tush00nka/chato/internal/model"
	"tush00nka/chato/internal/pkg/apperr"
	"tush00nka/chato/internal/pkg/auth"
	"tush00nka/chato/internal/pkg/mail"
	"tush00nka/chato/internal/repository"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	activationTTL = 24 * time.Hour
	resetTTL      = 10 * time.Minute
	searchLimit   = 20

	msgPasswordMismatch = "Passwords do not match"
	msgWrongCredentials = "Incorrect email or password"
	msgInvalidToken     = "Token is invalid or has expired"
	msgNoUser           = "There is no user with such id"
	msgIncorrectPass    = "Incorrect password"
)

type SignupInput struct {
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
}

type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Bio       *string
}

type UpdatePasswordInput struct {
	CurrentPassword string
	Password        string
	PasswordConfirm string
}

// TokenStore одноразовые токены и отозванные сессии
type TokenStore interface {
	SaveToken(ctx context.Context, purpose repository.TokenPurpose, token string, userID uuid.UUID, expiresIn time.Duration) error
	ConsumeToken(ctx context.Context, purpose repository.TokenPurpose, token string) (uuid.UUID, error)
	RevokeSession(ctx context.Context, sessionID string, expiresIn time.Duration) error
	IsSessionRevoked(ctx context.Context, sessionID string) (bool, error)
}

type userService struct {
	users     repository.UserRepository
	tokens    TokenStore
	auth      *auth.Manager
	mailer    mail.Mailer
	publicURL string
}

// NewUserService создает новый экземпляр UserService
func NewUserService(users repository.UserRepository, tokens TokenStore, authManager *auth.Manager, mailer mail.Mailer, publicURL string) UserService {
	return &userService{
		users:     users,
		tokens:    tokens,
		auth:      authManager,
		mailer:    mailer,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Signup создает неактивного пользователя и отправляет ссылку активации
func (s *userService) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	if in.Password != in.PasswordConfirm {
		return nil, apperr.BadRequest(msgPasswordMismatch)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, apperr.Conflict("User with such email already exists")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:     email,
		Password:  hash,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
	}
	err = s.users.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apperr.Conflict("User with such email already exists")
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	token := uuid.NewString()
	if err := s.tokens.SaveToken(ctx, repository.PurposeActivation, token, user.ID, activationTTL); err != nil {
		return nil, fmt.Errorf("save activation token: %w", err)
	}

	link := fmt.Sprintf("%s/api/v1/users/activate/%s", s.publicURL, token)
	s.send(ctx, user, "Activate your account",
		fmt.Sprintf(`<p>Welcome to Chato!</p><p><a href="%s">Activate your account</a>. The link is valid for 24 hours.</p>`, link))

	user.SanitizePassword()
	return user, nil
}

// Activate активирует аккаунт по одноразовому токену
func (s *userService) Activate(ctx context.Context, token string) error {
	userID, err := s.tokens.ConsumeToken(ctx, repository.PurposeActivation, token)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.BadRequest(msgInvalidToken)
	}
	if err != nil {
		return fmt.Errorf("consume activation token: %w", err)
	}

	err = s.users.UpdateFields(ctx, userID, map[string]any{"is_active": true})
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.BadRequest(msgInvalidToken)
	}
	return err
}

// Login проверяет пароль и выдает JWT
func (s *userService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", apperr.BadRequest(msgWrongCredentials)
	}
	if err != nil {
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	if !checkPassword(user.Password, password) {
		return nil, "", apperr.BadRequest(msgWrongCredentials)
	}

	if !user.IsActive {
		return nil, "", apperr.Forbidden("Your account is not active")
	}

	token, err := s.auth.GenerateToken(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	user.SanitizePassword()
	return user, token, nil
}

// Logout отзывает текущую сессию до истечения токена
func (s *userService) Logout(ctx context.Context, sessionID string) error {
	return s.tokens.RevokeSession(ctx, sessionID, s.auth.TTL())
}

// Authenticate возвращает владельца токена и идентификатор сессии
func (s *userService) Authenticate(ctx context.Context, token string) (*model.User, string, error) {
	claims, err := s.auth.ValidateToken(token)
	if err != nil {
		return nil, "", apperr.Unauthorized("Invalid token. Please log in again")
	}

	revoked, err := s.tokens.IsSessionRevoked(ctx, claims.SessionID())
	if err != nil {
		return nil, "", fmt.Errorf("check session: %w", err)
	}
	if revoked {
		return nil, "", apperr.Unauthorized("Your session has ended. Please log in again")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", apperr.Unauthorized("The user belonging to this token no longer exists")
	}
	if err != nil {
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	if !user.IsActive {
		return nil, "", apperr.Unauthorized("Your account is not active")
	}

	// Токены, выпущенные до смены пароля, недействительны
	if user.PasswordChangedAt != nil && claims.IssuedTime().Before(user.PasswordChangedAt.Truncate(time.Second)) {
		return nil, "", apperr.Unauthorized("Password was changed recently. Please log in again")
	}

	user.SanitizePassword()
	return user, claims.SessionID(), nil
}

// GetUser возвращает пользователя по ID
func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound(msgNoUser)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	user.SanitizePassword()
	return user, nil
}

// Search ищет активных пользователей по email и имени
func (s *userService) Search(ctx context.Context, prompt string) ([]model.User, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, apperr.BadRequest("Search prompt must not be empty")
	}
	return s.users.Search(ctx, prompt, searchLimit)
}

// UpdateMe обновляет профиль текущего пользователя
func (s *userService) UpdateMe(ctx context.Context, user *model.User, in UpdateProfileInput) (*model.User, error) {
	fields := make(map[string]any)
	if in.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*in.LastName)
	}
	if in.Bio != nil {
		fields["bio"] = strings.TrimSpace(*in.Bio)
	}

	if len(fields) == 0 {
		return nil, apperr.BadRequest("Please provide first name, last name or bio to update")
	}

	if err := s.users.UpdateFields(ctx, user.ID, fields); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	return s.GetUser(ctx, user.ID)
}

// UpdatePassword меняет пароль, закрывает текущую сессию и выдает новый токен
func (s *userService) UpdatePassword(ctx context.Context, user *model.User, sessionID string, in UpdatePasswordInput) (string, error) {
	current, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}

	if !checkPassword(current.Password, in.CurrentPassword) {
		return "", apperr.Forbidden("Your current password is wrong")
	}

	if in.Password == in.CurrentPassword {
		return "", apperr.BadRequest("New password must differ from the current one")
	}

	if in.Password != in.PasswordConfirm {
		return "", apperr.BadRequest(msgPasswordMismatch)
	}

	if err := s.setPassword(ctx, user.ID, in.Password); err != nil {
		return "", err
	}

	if err := s.tokens.RevokeSession(ctx, sessionID, s.auth.TTL()); err != nil {
		return "", fmt.Errorf("revoke session: %w", err)
	}

	token, err := s.auth.GenerateToken(user.ID)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// ForgetPassword отправляет ссылку для сброса пароля
func (s *userService) ForgetPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.BadRequest("There is no user with such email")
	}
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	token := uuid.NewString()
	if err := s.tokens.SaveToken(ctx, repository.PurposeReset, token, user.ID, resetTTL); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}

	link := fmt.Sprintf("%s/api/v1/users/reset-password/%s", s.publicURL, token)
	s.send(ctx, user, "Reset your password",
		fmt.Sprintf(`<p>Send a PATCH request with your new password to <a href="%s">%s</a>. The link is valid for 10 minutes.</p>`, link, link))
	return nil
}

// ResetPassword устанавливает новый пароль по токену сброса
func (s *userService) ResetPassword(ctx context.Context, token, password, passwordConfirm string) error {
	if password != passwordConfirm {
		return apperr.BadRequest(msgPasswordMismatch)
	}

	userID, err := s.tokens.ConsumeToken(ctx, repository.PurposeReset, token)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.BadRequest(msgInvalidToken)
	}
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}

	return s.setPassword(ctx, userID, password)
}

// Delete мягко удаляет аккаунт после проверки пароля
func (s *userService) Delete(ctx context.Context, user *model.User, sessionID, password string) error {
	if err := s.confirmPassword(ctx, user.ID, password); err != nil {
		return err
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return s.tokens.RevokeSession(ctx, sessionID, s.auth.TTL())
}

// Deactivate выключает аккаунт после проверки пароля
func (s *userService) Deactivate(ctx context.Context, user *model.User, sessionID, password string) error {
	if err := s.confirmPassword(ctx, user.ID, password); err != nil {
		return err
	}

	if err := s.users.UpdateFields(ctx, user.ID, map[string]any{"is_active": false}); err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}

	return s.tokens.RevokeSession(ctx, sessionID, s.auth.TTL())
}

func (s *userService) confirmPassword(ctx context.Context, userID uuid.UUID, password string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if !checkPassword(user.Password, password) {
		return apperr.BadRequest(msgIncorrectPass)
	}
	return nil
}

func (s *userService) setPassword(ctx context.Context, userID uuid.UUID, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	err = s.users.UpdateFields(ctx, userID, map[string]any{
		"password":            hash,
		"password_changed_at": time.Now().UTC(),
	})
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgNoUser)
	}
	return err
}

// send ошибки доставки не прерывают операцию
func (s *userService) send(ctx context.Context, user *model.User, subject, html string) {
	err := s.mailer.Send(ctx, mail.Message{
		ToEmail: user.Email,
		ToName:  user.DisplayName(),
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		log.Error("failed to send email", "to", user.Email, "subject", subject, "err", err)
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
