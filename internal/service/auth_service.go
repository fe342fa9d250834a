package service

import (
	"context"
	"errors"
	"strings"

	"healthloop/internal/domain"
	"healthloop/internal/logger"
	"healthloop/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Email    string
	Name     string
	Password string
	Role     domain.Role
}

// RequestMeta is the caller's network identity, recorded in the audit log.
type RequestMeta struct {
	IP        string
	UserAgent string
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type AuthService struct {
	store    repository.Store
	points   *PointsService
	tokens   *TokenService
	audit    *AuditService
	hashCost int
}

// NewAuthService uses bcrypt.DefaultCost when hashCost is 0.
func NewAuthService(store repository.Store, points *PointsService, tokens *TokenService, audit *AuditService, hashCost int) *AuthService {
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &AuthService{
		store:    store,
		points:   points,
		tokens:   tokens,
		audit:    audit,
		hashCost: hashCost,
	}
}

// Register creates the account and credits the registration bonus atomically.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest, meta RequestMeta) (AuthResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return AuthResult{}, err
	}

	bonus, err := s.points.rules.ResolvePoints(domain.ActionRegistration, 0)
	if err != nil {
		return AuthResult{}, err
	}

	user := &domain.User{
		Email:        strings.TrimSpace(req.Email),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		Role:         req.Role,
	}

	var out awardOutcome
	err = s.store.WithinTx(ctx, func(ctx context.Context, q repository.LoyaltyQueries) error {
		if err := q.CreateUser(ctx, user); err != nil {
			return err
		}
		if bonus > 0 {
			out, err = s.points.grant(ctx, q, user.ID, domain.ActionRegistration, bonus, "")
			if err != nil {
				return err
			}
			*user = out.user
		}
		return q.CreateAuditLog(ctx, &domain.AuditLog{
			UserID:    user.ID,
			Action:    domain.AuditActionRegister,
			Category:  domain.AuditCategoryAuth,
			Details:   map[string]interface{}{"role": user.Role},
			IP:        meta.IP,
			UserAgent: meta.UserAgent,
		})
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return AuthResult{}, ErrEmailTaken
	}
	if err != nil {
		return AuthResult{}, storeErr("register", err)
	}
	s.points.committed(ctx, out)
	logger.WithContext(ctx).Info("user registered", "user_id", user.ID, "role", user.Role)

	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string, meta RequestMeta) (AuthResult, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, storeErr("login", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	s.audit.LogLogin(ctx, user.ID, meta.IP, meta.UserAgent)

	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: token, User: user}, nil
}

// User loads a user by id.
func (s *AuthService) User(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return u, nil
}
