package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/dkeye/recruit/internal/core"
)

const (
	embedColor    = 0x5865F2
	maxRowButtons = 5
	maxRows       = 5
)

var buttonStyles = map[core.Style]discordgo.ButtonStyle{
	core.StylePrimary:   discordgo.PrimaryButton,
	core.StyleSecondary: discordgo.SecondaryButton,
	core.StyleSuccess:   discordgo.SuccessButton,
	core.StyleDanger:    discordgo.DangerButton,
}

func buttonStyle(s core.Style) discordgo.ButtonStyle {
	if bs, ok := buttonStyles[s]; ok {
		return bs
	}
	return discordgo.SecondaryButton
}

// embeds converts a document into a single embed.
func embeds(d core.Document) []*discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       d.Title,
		Description: d.Description,
		Color:       embedColor,
	}
	for _, f := range d.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return []*discordgo.MessageEmbed{e}
}

// components groups controls into action rows by their row index. A row that
// overflows spills into the next one.
func components(controls []core.Control) []discordgo.MessageComponent {
	var rows []discordgo.ActionsRow
	row, lastRow := -1, -1
	for _, c := range controls {
		if row < 0 || c.Row != lastRow || len(rows[row].Components) == maxRowButtons {
			if len(rows) == maxRows {
				break
			}
			rows = append(rows, discordgo.ActionsRow{})
			row = len(rows) - 1
			lastRow = c.Row
		}
		rows[row].Components = append(rows[row].Components, discordgo.Button{
			Label:    c.Label,
			Style:    buttonStyle(c.Style),
			CustomID: c.ID,
			Disabled: c.Disabled,
		})
	}
	out := make([]discordgo.MessageComponent, 0, len(rows))
	for _, r := range rows {
		out = append(out, r)
	}
	return out
}

// modal builds the creation form. Every input is required and single line.
func modal(control, title string, fields []core.FormField) *discordgo.InteractionResponseData {
	rows := make([]discordgo.MessageComponent, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    f.ID,
				Label:       f.Label,
				Style:       discordgo.TextInputShort,
				Placeholder: f.Placeholder,
				Value:       f.Default,
				Required:    true,
				MinLength:   f.MinLength,
				MaxLength:   f.MaxLength,
			},
		}})
	}
	return &discordgo.InteractionResponseData{
		CustomID:   control,
		Title:      title,
		Components: rows,
	}
}

// modalFields flattens submitted text inputs into id -> value.
func modalFields(data discordgo.ModalSubmitInteractionData) map[string]string {
	fields := make(map[string]string)
	for _, c := range data.Components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if in, ok := inner.(*discordgo.TextInput); ok {
				fields[in.CustomID] = in.Value
			}
		}
	}
	return fields
}
