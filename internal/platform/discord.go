package platform

import (
	"fmt"
	"io"

	"github.com/bwmarrin/discordgo"
)

const tierRoleColor = 0x0062ff

// Session implements Chat on top of a discordgo session.
type Session struct {
	s *discordgo.Session
}

func NewSession(s *discordgo.Session) *Session {
	return &Session{s: s}
}

func (d *Session) BotUserID() string {
	if d.s.State != nil && d.s.State.User != nil {
		return d.s.State.User.ID
	}
	return ""
}

func (d *Session) SendText(channelID, content string) (string, error) {
	msg, err := d.s.ChannelMessageSend(channelID, content)
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (d *Session) SendEmbed(channelID string, embed *discordgo.MessageEmbed) (string, error) {
	msg, err := d.s.ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (d *Session) SendEmbedWithFile(channelID string, embed *discordgo.MessageEmbed, filename string, file io.Reader) (string, error) {
	msg, err := d.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Files: []*discordgo.File{{
			Name:        filename,
			ContentType: "image/png",
			Reader:      file,
		}},
	})
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (d *Session) EditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed) error {
	_, err := d.s.ChannelMessageEditEmbed(channelID, messageID, embed)
	return err
}

func (d *Session) AddReaction(channelID, messageID, emoji string) error {
	return d.s.MessageReactionAdd(channelID, messageID, emoji)
}

func (d *Session) RemoveReaction(channelID, messageID, emoji, userID string) error {
	return d.s.MessageReactionRemove(channelID, messageID, emoji, userID)
}

func (d *Session) EnsureRole(guildID, name string) (string, error) {
	id, err := d.RoleID(guildID, name)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	color := tierRoleColor
	role, err := d.s.GuildRoleCreate(guildID, &discordgo.RoleParams{Name: name, Color: &color})
	if err != nil {
		return "", fmt.Errorf("failed to create role %q: %w", name, err)
	}
	return role.ID, nil
}

func (d *Session) RoleID(guildID, name string) (string, error) {
	roles, err := d.s.GuildRoles(guildID)
	if err != nil {
		return "", fmt.Errorf("failed to list roles for guild %s: %w", guildID, err)
	}
	for _, r := range roles {
		if r.Name == name {
			return r.ID, nil
		}
	}
	return "", nil
}

func (d *Session) AddMemberRole(guildID, userID, roleID string) error {
	return d.s.GuildMemberRoleAdd(guildID, userID, roleID)
}

func (d *Session) RemoveMemberRole(guildID, userID, roleID string) error {
	return d.s.GuildMemberRoleRemove(guildID, userID, roleID)
}

func (d *Session) UserProfile(userID string) (string, string, error) {
	u, err := d.s.User(userID)
	if err != nil {
		return "", "", err
	}
	name := u.GlobalName
	if name == "" {
		name = u.Username
	}
	return name, u.AvatarURL(""), nil
}
