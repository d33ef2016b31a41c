package platform

import (
	"io"

	"github.com/bwmarrin/discordgo"
)

// Chat is the narrow chat-platform surface the services depend on.
// Implemented by Session for real guilds and by platformtest.FakeChat
// in tests.
type Chat interface {
	BotUserID() string
	SendText(channelID, content string) (string, error)
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) (string, error)
	SendEmbedWithFile(channelID string, embed *discordgo.MessageEmbed, filename string, file io.Reader) (string, error)
	EditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed) error
	AddReaction(channelID, messageID, emoji string) error
	RemoveReaction(channelID, messageID, emoji, userID string) error

	// EnsureRole returns the id of the named role, creating it first
	// if the guild does not have it yet.
	EnsureRole(guildID, name string) (string, error)
	// RoleID returns the id of the named role, or "" when absent.
	RoleID(guildID, name string) (string, error)
	AddMemberRole(guildID, userID, roleID string) error
	RemoveMemberRole(guildID, userID, roleID string) error

	UserProfile(userID string) (displayName, avatarURL string, err error)
}
