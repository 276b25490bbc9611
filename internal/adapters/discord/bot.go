package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/recruit/internal/core"
	"github.com/dkeye/recruit/internal/domain"
)

// SetupCommand posts the trigger panel in the channel it is typed in.
const SetupCommand = "!setup"

// eventTimeout bounds the handling of one interaction.
const eventTimeout = 10 * time.Second

// Dispatcher consumes inbound events. Implemented by app.Router.
type Dispatcher interface {
	Handle(ctx context.Context, ev core.Event) error
	PostTrigger(ctx context.Context, channel string) (domain.MessageRef, error)
}

// Bot owns the Discord session and translates gateway events.
type Bot struct {
	session *discordgo.Session
	gateway *Gateway

	mu       sync.RWMutex
	dispatch Dispatcher
	ctx      context.Context
}

func New(token string) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	b := &Bot{session: s, gateway: &Gateway{rest: s}, ctx: context.Background()}
	s.AddHandler(b.onReady)
	s.AddHandler(b.onInteraction)
	s.AddHandler(b.onMessage)
	return b, nil
}

// Gateway returns the core.Gateway backed by this bot.
func (b *Bot) Gateway() *Gateway { return b.gateway }

// Bind sets the dispatcher. Must be called before Run.
func (b *Bot) Bind(d Dispatcher) {
	b.mu.Lock()
	b.dispatch = d
	b.mu.Unlock()
}

func (b *Bot) dispatcher() (Dispatcher, context.Context) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dispatch, b.ctx
}

// Run opens the gateway connection and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	log.Info().Str("module", "adapters.discord").Msg("gateway connected")

	<-ctx.Done()
	if err := b.session.Close(); err != nil {
		log.Warn().Err(err).Str("module", "adapters.discord").Msg("gateway close")
	}
	log.Info().Str("module", "adapters.discord").Msg("gateway disconnected")
	return nil
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	log.Info().Str("module", "adapters.discord").Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("ready")
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	d, base := b.dispatcher()
	if d == nil {
		return
	}
	ev, ok := translate(i)
	if !ok {
		return
	}
	ev.Reply = &interactionResponder{session: s, interaction: i.Interaction}

	ctx, cancel := context.WithTimeout(withGuild(base, i.GuildID), eventTimeout)
	defer cancel()
	if err := d.Handle(ctx, ev); err != nil && !errors.Is(err, domain.ErrBadControl) {
		log.Debug().Err(err).Str("module", "adapters.discord").Str("control", ev.Control).Msg("event handled with outcome")
	}
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || strings.TrimSpace(m.Content) != SetupCommand {
		return
	}
	d, base := b.dispatcher()
	if d == nil {
		return
	}
	ctx, cancel := context.WithTimeout(withGuild(base, m.GuildID), eventTimeout)
	defer cancel()
	if _, err := d.PostTrigger(ctx, m.ChannelID); err != nil {
		log.Error().Err(err).Str("module", "adapters.discord").Str("channel", m.ChannelID).Msg("setup failed")
		return
	}
	if err := s.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
		log.Debug().Err(err).Str("module", "adapters.discord").Msg("setup command not deleted")
	}
}

// translate maps a button press or modal submission to an event. Other
// interaction types are ignored.
func translate(i *discordgo.InteractionCreate) (core.Event, bool) {
	ev := core.Event{Actor: actorOf(i.Interaction), Channel: i.ChannelID}
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		ev.Control = i.MessageComponentData().CustomID
	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		ev.Control = data.CustomID
		ev.Fields = modalFields(data)
	default:
		return core.Event{}, false
	}
	return ev, ev.Actor != ""
}

func actorOf(i *discordgo.Interaction) domain.UserID {
	switch {
	case i.Member != nil && i.Member.User != nil:
		return domain.UserID(i.Member.User.ID)
	case i.User != nil:
		return domain.UserID(i.User.ID)
	}
	return ""
}

// interactionClient is the slice of *discordgo.Session used to answer an
// interaction.
type interactionClient interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// interactionResponder answers ephemerally. The first answer is the
// interaction response; later ones are followups.
type interactionResponder struct {
	session     interactionClient
	interaction *discordgo.Interaction

	mu        sync.Mutex
	responded bool
}

// Defer acknowledges the interaction with an ephemeral loading state. The
// first followup replaces it.
func (r *interactionResponder) Defer(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.responded {
		return nil
	}
	r.responded = true
	return r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}, discordgo.WithContext(ctx))
}

func (r *interactionResponder) Notify(ctx context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.responded {
		_, err := r.session.FollowupMessageCreate(r.interaction, false, &discordgo.WebhookParams{
			Content: text,
			Flags:   discordgo.MessageFlagsEphemeral,
		}, discordgo.WithContext(ctx))
		return err
	}
	r.responded = true
	return r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: text,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
}

func (r *interactionResponder) OpenForm(ctx context.Context, control, title string, fields []core.FormField) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.responded {
		return errors.New("interaction already answered")
	}
	r.responded = true
	return r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: modal(control, title, fields),
	}, discordgo.WithContext(ctx))
}
