package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"strava-club/internal/models"
	"strava-club/internal/platform"
	"strava-club/internal/strava"
)

const (
	authScope       = "activity:read_all"
	authWaitTimeout = 60 * time.Second
	authorizedRole  = "Authorized"
)

// AuthService runs the interactive authorization flow: post the consent
// URL, wait for the user to paste the callback URL back into the
// channel, exchange the code and persist the credential. A flow that
// sees no callback within the timeout aborts without creating any row.
type AuthService struct {
	db          *gorm.DB
	strava      *strava.Client
	chat        platform.Chat
	redirectURI string
	timeout     time.Duration

	mu      sync.Mutex
	pending map[string]chan string // userID/channelID -> callback URL
}

func NewAuthService(db *gorm.DB, client *strava.Client, chat platform.Chat, redirectURI string) *AuthService {
	return &AuthService{
		db:          db,
		strava:      client,
		chat:        chat,
		redirectURI: redirectURI,
		timeout:     authWaitTimeout,
		pending:     make(map[string]chan string),
	}
}

func pendingKey(userID, channelID string) string {
	return userID + "/" + channelID
}

// Start posts the consent URL and waits (in the background) for the
// user's callback message in the same channel.
func (s *AuthService) Start(guildID, channelID, userID, displayName string) {
	authURL := s.strava.AuthorizationURL(s.redirectURI, authScope)
	if _, err := s.chat.SendText(channelID,
		"Please go to\n"+authURL+"\nand authorize access, then paste the full callback URL here."); err != nil {
		log.Printf("failed to post authorization URL for user %s: %v", userID, err)
		return
	}

	key := pendingKey(userID, channelID)
	ch := make(chan string, 1)
	s.mu.Lock()
	s.pending[key] = ch
	s.mu.Unlock()

	go s.await(guildID, channelID, userID, displayName, key, ch)
}

func (s *AuthService) await(guildID, channelID, userID, displayName, key string, ch chan string) {
	defer func() {
		s.mu.Lock()
		delete(s.pending, key)
		s.mu.Unlock()
	}()

	select {
	case raw := <-ch:
		s.complete(guildID, channelID, userID, displayName, raw)
	case <-time.After(s.timeout):
		if _, err := s.chat.SendText(channelID, "Input timeout (60s), please retry the authorize command."); err != nil {
			log.Printf("failed to post authorization timeout notice: %v", err)
		}
	}
}

// Resume feeds a channel message into a waiting flow. Returns true when
// the message was consumed as a callback URL.
func (s *AuthService) Resume(channelID, userID, content string) bool {
	if !strings.Contains(content, s.redirectURI) {
		return false
	}
	key := pendingKey(userID, channelID)
	s.mu.Lock()
	ch, ok := s.pending[key]
	if ok {
		delete(s.pending, key)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	ch <- content
	return true
}

func extractCode(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid callback URL: %w", err)
	}
	code := u.Query().Get("code")
	if code == "" {
		return "", fmt.Errorf("callback URL has no code parameter")
	}
	return code, nil
}

func (s *AuthService) complete(guildID, channelID, userID, displayName, raw string) {
	code, err := extractCode(raw)
	if err != nil {
		log.Printf("authorization failed for user %s: %v", userID, err)
		s.chat.SendText(channelID, "ERROR: could not read the callback URL. Please try again.")
		return
	}

	tok, err := s.strava.ExchangeCode(context.Background(), code)
	if err != nil {
		log.Printf("code exchange failed for user %s: %v", userID, err)
		s.chat.SendText(channelID, "ERROR: user not authorized. Please try again.")
		return
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		cred := models.Credential{
			UserID:       userID,
			AthleteID:    tok.Athlete.ID,
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
			ExpiresAt:    tok.ExpiresAt,
		}
		if err := tx.Save(&cred).Error; err != nil {
			return err
		}
		membership := models.Membership{GuildID: guildID, UserID: userID, DisplayName: displayName}
		if err := tx.Save(&membership).Error; err != nil {
			return err
		}
		stat := models.UserGroupStat{UserID: userID, GuildID: guildID}
		return tx.Where("user_id = ? AND guild_id = ?", userID, guildID).
			FirstOrCreate(&stat).Error
	})
	if err != nil {
		log.Printf("failed to store credential for user %s: %v", userID, err)
		s.chat.SendText(channelID, "ERROR: user not authorized. Please try again.")
		return
	}

	if roleID, err := s.chat.EnsureRole(guildID, authorizedRole); err != nil {
		log.Printf("failed to ensure %s role in guild %s: %v", authorizedRole, guildID, err)
	} else if err := s.chat.AddMemberRole(guildID, userID, roleID); err != nil {
		log.Printf("failed to grant %s role to user %s: %v", authorizedRole, userID, err)
	}

	s.chat.SendText(channelID, fmt.Sprintf("User authorized! (%s)", displayName))
}

// Unauthorized strips the Authorized role after a user revokes access.
func (s *AuthService) Unauthorized(guildID, userID string) {
	roleID, err := s.chat.RoleID(guildID, authorizedRole)
	if err != nil || roleID == "" {
		return
	}
	if err := s.chat.RemoveMemberRole(guildID, userID, roleID); err != nil {
		log.Printf("failed to remove %s role from user %s: %v", authorizedRole, userID, err)
	}
}
