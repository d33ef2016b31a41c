package services

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"strava-club/internal/models"
	"strava-club/internal/strava"
)

// maxRefreshFailures is the number of consecutive refresh failures
// after which a credential is treated as irrecoverable and purged.
const maxRefreshFailures = 3

// TokenService owns the Credential table: refreshing token pairs,
// pruning dead ones, and cascading removal of everything a departed
// user left behind.
type TokenService struct {
	db     *gorm.DB
	strava *strava.Client
	now    func() time.Time
}

func NewTokenService(db *gorm.DB, client *strava.Client) *TokenService {
	return &TokenService{db: db, strava: client, now: time.Now}
}

// RefreshAll attempts a token refresh for every stored credential. A
// failed refresh leaves the credential in place but bumps its failure
// count; the third consecutive failure deletes it with full cascade.
// Failures never abort the pass for other users.
func (s *TokenService) RefreshAll(ctx context.Context) {
	var creds []models.Credential
	if err := s.db.Find(&creds).Error; err != nil {
		log.Printf("failed to load credentials: %v", err)
		return
	}
	if len(creds) == 0 {
		log.Println("no authorized users")
		return
	}

	for _, cred := range creds {
		tok, err := s.strava.Refresh(ctx, cred.RefreshToken)
		if err != nil {
			cred.FailCount++
			log.Printf("token refresh failed for user %s (%d/%d): %v",
				cred.UserID, cred.FailCount, maxRefreshFailures, err)
			if cred.FailCount >= maxRefreshFailures {
				if err := s.Unauthorize(cred.UserID); err != nil {
					log.Printf("failed to purge credential for user %s: %v", cred.UserID, err)
				}
				continue
			}
			if err := s.db.Model(&models.Credential{}).
				Where("user_id = ?", cred.UserID).
				UpdateColumn("fail_count", cred.FailCount).Error; err != nil {
				log.Printf("failed to record refresh failure for user %s: %v", cred.UserID, err)
			}
			continue
		}

		if err := s.db.Model(&models.Credential{}).
			Where("user_id = ?", cred.UserID).
			Updates(map[string]any{
				"access_token":  tok.AccessToken,
				"refresh_token": tok.RefreshToken,
				"expires_at":    tok.ExpiresAt,
				"fail_count":    0,
			}).Error; err != nil {
			log.Printf("failed to store refreshed tokens for user %s: %v", cred.UserID, err)
		}
	}
}

// PruneExpired removes credentials whose expiry is in the past. This is
// a safety net behind RefreshAll; each removal cascades.
func (s *TokenService) PruneExpired() {
	var expired []models.Credential
	if err := s.db.Where("expires_at < ?", s.now().Unix()).Find(&expired).Error; err != nil {
		log.Printf("failed to query expired credentials: %v", err)
		return
	}
	for _, cred := range expired {
		log.Printf("pruning expired credential for user %s", cred.UserID)
		if err := s.Unauthorize(cred.UserID); err != nil {
			log.Printf("failed to prune credential for user %s: %v", cred.UserID, err)
		}
	}
}

// Unauthorize deletes the user's credential together with every row
// that is only reachable through it, in one transaction.
func (s *TokenService) Unauthorize(userID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{
			&models.Credential{},
			&models.Activity{},
			&models.DailyActivity{},
			&models.UserGroupStat{},
			&models.Membership{},
			&models.RoleAssignment{},
		} {
			if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
