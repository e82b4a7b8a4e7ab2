// Package discord connects the router to Discord: inbound messages and
// component taps come in, replies with button grids go out.
package discord

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/tmatv/minder/internal/action"
	"github.com/tmatv/minder/internal/bot"
	"github.com/tmatv/minder/internal/logging"
)

// Discord allows at most 5 buttons per row and 5 rows per message.
const (
	maxButtonsPerRow = 5
	maxRows          = 5
)

// Config holds Discord connection settings.
type Config struct {
	Token     string
	ChannelID string
	OwnerID   string
}

// Adapter bridges a Discord session and the router.
type Adapter struct {
	session   *discordgo.Session
	router    *bot.Router
	channelID string
	ownerID   string
	botID     string
}

// New creates an adapter. The session is not opened until Start.
func New(cfg Config, router *bot.Router) (*Adapter, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	a := &Adapter{
		session:   session,
		router:    router,
		channelID: cfg.ChannelID,
		ownerID:   cfg.OwnerID,
	}

	session.AddHandler(a.handleMessage)
	session.AddHandler(a.handleInteraction)

	// message content plus DMs; components arrive regardless of intents
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	return a, nil
}

// Start connects to Discord and begins handling traffic.
func (a *Adapter) Start() error {
	if err := a.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	a.botID = a.session.State.User.ID
	logging.Info("discord", "connected as %s", a.session.State.User.Username)
	return nil
}

// Stop disconnects from Discord.
func (a *Adapter) Stop() error {
	return a.session.Close()
}

// Session returns the underlying Discord session.
func (a *Adapter) Session() *discordgo.Session {
	return a.session
}

// Deliver sends a reply to a channel outside of any request/response
// cycle, e.g. when a reminder fires.
func (a *Adapter) Deliver(chatID int64, reply bot.Reply) error {
	_, err := a.session.ChannelMessageSendComplex(strconv.FormatInt(chatID, 10), &discordgo.MessageSend{
		Content:    reply.Text,
		Components: components(reply.Keyboard),
	})
	return err
}

func (a *Adapter) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == a.botID {
		return
	}
	if a.channelID != "" && m.ChannelID != a.channelID && m.GuildID != "" {
		return
	}
	if a.ownerID != "" && m.Author.ID != a.ownerID {
		return
	}

	userID := parseSnowflake(m.Author.ID)
	chatID := parseSnowflake(m.ChannelID)
	logging.Debug("discord", "message from %s: %s", m.Author.Username, logging.Truncate(m.Content, 50))

	reply := a.router.HandleMessage(userID, chatID, m.Content)
	a.send(m.ChannelID, reply)
}

func (a *Adapter) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	user := i.User
	if user == nil && i.Member != nil {
		user = i.Member.User
	}
	if user == nil {
		return
	}
	if a.ownerID != "" && user.ID != a.ownerID {
		return
	}

	data := i.MessageComponentData().CustomID
	userID := parseSnowflake(user.ID)
	chatID := parseSnowflake(i.ChannelID)
	logging.Debug("discord", "component tap: %s", logging.Truncate(data, 64))

	reply := a.router.HandleCallback(userID, chatID, data)
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    reply.Text,
			Components: components(reply.Keyboard),
		},
	})
	if err != nil {
		logging.Warn("discord", "interaction respond failed: %v", err)
	}
}

func (a *Adapter) send(channelID string, reply bot.Reply) {
	if reply.Text == "" && reply.Keyboard == nil {
		return
	}
	_, err := a.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    reply.Text,
		Components: components(reply.Keyboard),
	})
	if err != nil {
		logging.Warn("discord", "send failed: %v", err)
	}
}

// components maps a keyboard onto Discord action rows, clamping to the
// platform's 5x5 grid. Overflow buttons are dropped, not wrapped: a
// keyboard that big is a bug upstream.
func components(k *action.Keyboard) []discordgo.MessageComponent {
	if k == nil || len(k.Rows) == 0 {
		return nil
	}
	rows := k.Rows
	if len(rows) > maxRows {
		logging.Warn("discord", "keyboard has %d rows, clamping to %d", len(rows), maxRows)
		rows = rows[:maxRows]
	}
	out := make([]discordgo.MessageComponent, 0, len(rows))
	for _, row := range rows {
		buttons := row
		if len(buttons) > maxButtonsPerRow {
			logging.Warn("discord", "row has %d buttons, clamping to %d", len(buttons), maxButtonsPerRow)
			buttons = buttons[:maxButtonsPerRow]
		}
		comps := make([]discordgo.MessageComponent, 0, len(buttons))
		for _, b := range buttons {
			comps = append(comps, discordgo.Button{
				Label:    b.Label,
				Style:    discordgo.PrimaryButton,
				CustomID: b.Data,
			})
		}
		out = append(out, discordgo.ActionsRow{Components: comps})
	}
	return out
}

// parseSnowflake converts a Discord snowflake id to the numeric form
// the router keys on. Snowflakes always fit in int64.
func parseSnowflake(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		logging.Warn("discord", "bad snowflake %q: %v", s, err)
		return 0
	}
	return n
}
