package service

import (
	"context"

	"healthloop/internal/domain"
	"healthloop/internal/logger"
	"healthloop/internal/repository"
)

// AuditService handles audit logging outside loyalty transactions. Entries
// written inside an award go through LoyaltyQueries instead.
type AuditService struct {
	store repository.Store
}

func NewAuditService(store repository.Store) *AuditService {
	return &AuditService{store: store}
}

// Log creates a new audit log entry. Failures are logged, never returned.
func (s *AuditService) Log(ctx context.Context, userID int64, action, category string, details map[string]interface{}) {
	s.LogWithRequest(ctx, userID, action, category, "", "", details)
}

// LogWithRequest creates an audit log with request info (IP, User-Agent)
func (s *AuditService) LogWithRequest(ctx context.Context, userID int64, action, category, ip, userAgent string, details map[string]interface{}) {
	log := &domain.AuditLog{
		UserID:    userID,
		Action:    action,
		Category:  category,
		Details:   details,
		IP:        ip,
		UserAgent: userAgent,
	}

	if err := s.store.CreateAuditLog(ctx, log); err != nil {
		logger.WithContext(ctx).Error("failed to create audit log", "error", err, "action", action, "user_id", userID)
	}
}

// LogLogin logs a user login
func (s *AuditService) LogLogin(ctx context.Context, userID int64, ip, userAgent string) {
	s.LogWithRequest(ctx, userID, domain.AuditActionLogin, domain.AuditCategoryAuth, ip, userAgent, nil)
}

// UserActivity returns the newest audit entries for a user
func (s *AuditService) UserActivity(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	logs, err := s.store.ListAuditLogs(ctx, userID, limit)
	if err != nil {
		return nil, storeErr("list audit logs", err)
	}
	if logs == nil {
		logs = []*domain.AuditLog{}
	}
	return logs, nil
}
