// Package platformtest provides an in-memory Chat implementation for
// service and scheduler tests.
package platformtest

import (
	"fmt"
	"io"
	"sync"

	"github.com/bwmarrin/discordgo"
)

type SentMessage struct {
	ChannelID string
	Content   string
	Embed     *discordgo.MessageEmbed
	Filename  string
}

type Edit struct {
	ChannelID string
	MessageID string
	Embed     *discordgo.MessageEmbed
}

type Reaction struct {
	ChannelID string
	MessageID string
	Emoji     string
	UserID    string
}

// FakeChat records every call so tests can assert on the message and
// role traffic a service produced.
type FakeChat struct {
	mu sync.Mutex

	BotID string

	Messages         []SentMessage
	Edits            []Edit
	Reactions        []Reaction
	RemovedReactions []Reaction

	// roles[guildID][roleName] = roleID
	roles map[string]map[string]string
	// memberRoles[guildID+"/"+userID] = set of role ids
	memberRoles map[string]map[string]bool
	Profiles    map[string][2]string // userID -> {display name, avatar URL}

	// FailChannels makes sends to these channel ids error, for
	// failure-isolation tests.
	FailChannels map[string]bool

	nextMessage int
	nextRole    int
}

func NewFakeChat() *FakeChat {
	return &FakeChat{
		BotID:        "bot-user",
		roles:        map[string]map[string]string{},
		memberRoles:  map[string]map[string]bool{},
		Profiles:     map[string][2]string{},
		FailChannels: map[string]bool{},
	}
}

func (f *FakeChat) BotUserID() string { return f.BotID }

func (f *FakeChat) send(msg SentMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailChannels[msg.ChannelID] {
		return "", fmt.Errorf("channel %s unavailable", msg.ChannelID)
	}
	f.nextMessage++
	f.Messages = append(f.Messages, msg)
	return fmt.Sprintf("msg-%d", f.nextMessage), nil
}

func (f *FakeChat) SendText(channelID, content string) (string, error) {
	return f.send(SentMessage{ChannelID: channelID, Content: content})
}

func (f *FakeChat) SendEmbed(channelID string, embed *discordgo.MessageEmbed) (string, error) {
	return f.send(SentMessage{ChannelID: channelID, Embed: embed})
}

func (f *FakeChat) SendEmbedWithFile(channelID string, embed *discordgo.MessageEmbed, filename string, file io.Reader) (string, error) {
	if file != nil {
		io.Copy(io.Discard, file)
	}
	return f.send(SentMessage{ChannelID: channelID, Embed: embed, Filename: filename})
}

func (f *FakeChat) EditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Edits = append(f.Edits, Edit{ChannelID: channelID, MessageID: messageID, Embed: embed})
	return nil
}

func (f *FakeChat) AddReaction(channelID, messageID, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reactions = append(f.Reactions, Reaction{ChannelID: channelID, MessageID: messageID, Emoji: emoji})
	return nil
}

func (f *FakeChat) RemoveReaction(channelID, messageID, emoji, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RemovedReactions = append(f.RemovedReactions, Reaction{ChannelID: channelID, MessageID: messageID, Emoji: emoji, UserID: userID})
	return nil
}

func (f *FakeChat) EnsureRole(guildID, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.roles[guildID] == nil {
		f.roles[guildID] = map[string]string{}
	}
	if id, ok := f.roles[guildID][name]; ok {
		return id, nil
	}
	f.nextRole++
	id := fmt.Sprintf("role-%d", f.nextRole)
	f.roles[guildID][name] = id
	return id, nil
}

func (f *FakeChat) RoleID(guildID, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roles[guildID][name], nil
}

func (f *FakeChat) AddMemberRole(guildID, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := guildID + "/" + userID
	if f.memberRoles[key] == nil {
		f.memberRoles[key] = map[string]bool{}
	}
	f.memberRoles[key][roleID] = true
	return nil
}

func (f *FakeChat) RemoveMemberRole(guildID, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.memberRoles[guildID+"/"+userID], roleID)
	return nil
}

func (f *FakeChat) UserProfile(userID string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.Profiles[userID]; ok {
		return p[0], p[1], nil
	}
	return userID, "", nil
}

// MemberRoleNames returns the names of every role the user currently
// holds in the guild.
func (f *FakeChat) MemberRoleNames(guildID, userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	held := f.memberRoles[guildID+"/"+userID]
	var names []string
	for name, id := range f.roles[guildID] {
		if held[id] {
			names = append(names, name)
		}
	}
	return names
}

// MessagesTo returns every message sent to the channel.
func (f *FakeChat) MessagesTo(channelID string) []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []SentMessage
	for _, m := range f.Messages {
		if m.ChannelID == channelID {
			out = append(out, m)
		}
	}
	return out
}
