// Package discord connects the engine to a Discord guild: recruitment posts
// are embeds with buttons, the creation form is a modal and rooms are voice
// channels.
package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/recruit/internal/core"
	"github.com/dkeye/recruit/internal/domain"
)

var ErrNoGuild = errors.New("no guild for voice channel")

// restClient is the part of *discordgo.Session the gateway calls.
type restClient interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	GuildChannelCreate(guildID, name string, ctype discordgo.ChannelType, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

type guildKey struct{}

// withGuild scopes a context to the guild an event came from.
func withGuild(ctx context.Context, guildID string) context.Context {
	return context.WithValue(ctx, guildKey{}, guildID)
}

func guildFrom(ctx context.Context) string {
	id, _ := ctx.Value(guildKey{}).(string)
	return id
}

// JumpURL links to a message in a guild channel.
func JumpURL(guildID, channelID, messageID string) string {
	if guildID == "" {
		guildID = "@me"
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

// Gateway implements core.Gateway over the Discord REST API.
type Gateway struct {
	rest restClient
}

var _ core.Gateway = (*Gateway)(nil)

func (g *Gateway) Send(ctx context.Context, channel string, v core.View) (domain.MessageRef, error) {
	msg, err := g.rest.ChannelMessageSendComplex(channel, &discordgo.MessageSend{
		Embeds:     embeds(v.Document),
		Components: components(v.Controls),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return domain.MessageRef{}, fmt.Errorf("send to %s: %w", channel, err)
	}
	guild := msg.GuildID
	if guild == "" {
		guild = guildFrom(ctx)
	}
	return domain.MessageRef{
		Channel: msg.ChannelID,
		ID:      domain.SessionID(msg.ID),
		URL:     JumpURL(guild, msg.ChannelID, msg.ID),
	}, nil
}

func (g *Gateway) Edit(ctx context.Context, ref domain.MessageRef, v core.View) error {
	em := embeds(v.Document)
	comps := components(v.Controls)
	_, err := g.rest.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         string(ref.ID),
		Channel:    ref.Channel,
		Embeds:     &em,
		Components: &comps,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("edit %s: %w", ref.ID, err)
	}
	return nil
}

func (g *Gateway) Delete(ctx context.Context, ref domain.MessageRef) error {
	if err := g.rest.ChannelMessageDelete(ref.Channel, string(ref.ID), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete %s: %w", ref.ID, err)
	}
	return nil
}

// CreateRoom creates a voice channel in the guild of the current event.
func (g *Gateway) CreateRoom(ctx context.Context, name domain.RoomName) (domain.RoomID, error) {
	guild := guildFrom(ctx)
	if guild == "" {
		return "", ErrNoGuild
	}
	ch, err := g.rest.GuildChannelCreate(guild, string(name), discordgo.ChannelTypeGuildVoice, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("create voice channel: %w", err)
	}
	log.Info().Str("module", "adapters.discord").Str("guild", guild).Str("room", ch.ID).Msg("voice channel created")
	return domain.RoomID(ch.ID), nil
}

func (g *Gateway) DeleteRoom(ctx context.Context, id domain.RoomID) error {
	if _, err := g.rest.ChannelDelete(string(id), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete voice channel %s: %w", id, err)
	}
	return nil
}
