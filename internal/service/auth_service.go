package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pgss/backend/config"
	"pgss/backend/internal/access"
	"pgss/backend/internal/dto"
	"pgss/backend/internal/model"
	"pgss/backend/internal/repository"
	"pgss/backend/pkg/jwt"
	pkgredis "pgss/backend/pkg/redis"
)

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, accessJTI string, accessExp time.Time, refreshToken string) error
	Me(ctx context.Context, caller *access.Caller) (*dto.UserResponse, error)
	ChangePassword(ctx context.Context, caller *access.Caller, req *dto.ChangePasswordRequest) error

	// ResolveCaller 按数据库记录解析当前请求身份，账号不存在或非 active 时返回 401 类错误
	ResolveCaller(ctx context.Context, userID string) (*access.Caller, error)
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	rdb    *pkgredis.Client
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *pkgredis.Client,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		rdb:    rdb,
		logger: logger,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 账号状态
	if !user.IsActive() {
		return nil, ErrAccountDisabled
	}

	return s.issueTokens(user)
}

// issueTokens 生成 Token 对并构造响应
func (s *authService) issueTokens(user *model.User) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         toUserResponse(user),
	}, nil
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	expected, err := parseDate(req.ExpectedCompletionDate)
	if err != nil {
		return nil, err
	}

	user, err := createUserWithProfile(ctx, s.repo, s.logger, newUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     req.Role,
		Status:   model.UserStatusActive,
		profile: profileInput{
			Program:                req.Program,
			ResearchTitle:          req.ResearchTitle,
			StartDate:              start,
			ExpectedCompletionDate: expected,
			Department:             req.Department,
			ResearchAreas:          req.ResearchAreas,
			Capacity:               req.Capacity,
		},
	}, "")
	if err != nil {
		return nil, err
	}

	s.logger.Info("用户自助注册", zap.String("user_id", user.UserID), zap.String("role", user.Role))
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── Refresh ──────────────────────

// Refresh 校验 Refresh Token 并轮换：旧 Token 加入黑名单，签发新 Token 对
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != "refresh" {
		return nil, ErrInvalidRefreshToken
	}

	// Redis 不可用时降级放行
	revoked, err := s.rdb.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		s.logger.Warn("查询 Token 黑名单失败", zap.String("jti", claims.ID), zap.Error(err))
	} else if revoked {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		s.logger.Error("查询用户失败", zap.String("user_id", claims.UserID), zap.Error(err))
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrAccountDisabled
	}

	if claims.ExpiresAt != nil {
		if err := s.rdb.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			s.logger.Warn("旧 RefreshToken 加入黑名单失败", zap.Error(err))
		}
	}

	return s.issueTokens(user)
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, accessJTI string, accessExp time.Time, refreshToken string) error {
	if accessJTI != "" {
		if err := s.rdb.BlacklistToken(ctx, accessJTI, time.Until(accessExp)); err != nil {
			s.logger.Warn("AccessToken 加入黑名单失败", zap.String("jti", accessJTI), zap.Error(err))
		}
	}

	if refreshToken != "" {
		claims, err := s.jwtMgr.ParseToken(refreshToken)
		if err == nil && claims.TokenType == "refresh" && claims.ExpiresAt != nil {
			if err := s.rdb.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
				s.logger.Warn("RefreshToken 加入黑名单失败", zap.Error(err))
			}
		}
	}
	return nil
}

// ────────────────────── Me ──────────────────────

func (s *authService) Me(ctx context.Context, caller *access.Caller) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── ChangePassword ──────────────────────

func (s *authService) ChangePassword(ctx context.Context, caller *access.Caller, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, caller.UserID)
	if err != nil {
		return notFound(err, ErrUserNotFound)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrWrongOldPassword
	}
	if req.OldPassword == req.NewPassword {
		return ErrSamePassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}
	if err := s.repo.User.UpdatePassword(ctx, user.UserID, string(hash)); err != nil {
		s.logger.Error("更新密码失败", zap.String("user_id", user.UserID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── ResolveCaller ──────────────────────

func (s *authService) ResolveCaller(ctx context.Context, userID string) (*access.Caller, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		s.logger.Error("解析请求身份失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrAccountDisabled
	}

	caller := &access.Caller{UserID: user.UserID, Role: user.Role}
	switch user.Role {
	case model.RoleStudent:
		if user.Student != nil {
			caller.StudentID = user.Student.StudentID
			caller.AssignedSupervisorID = user.Student.AssignedSupervisorID()
		}
	case model.RoleSupervisor:
		if user.Supervisor != nil {
			caller.SupervisorID = user.Supervisor.SupervisorID
		}
	}
	return caller, nil
}

func (s *authService) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return s.rdb.IsBlacklisted(ctx, jti)
}
