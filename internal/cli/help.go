package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

var (
	helpFlagStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAAA")).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Italic(true)
)

// helpRow is one positional argument or flag in the help listing.
type helpRow struct {
	label      string
	help       string
	defaultVal string
	positional bool
}

// StyledHelpPrinter creates a kong help printer that renders the
// command surface as aligned, lipgloss-styled columns.
func StyledHelpPrinter(options kong.HelpOptions) func(options kong.HelpOptions, ctx *kong.Context) error {
	return func(options kong.HelpOptions, ctx *kong.Context) error {
		args, flags := collectRows(ctx)
		width := labelWidth(args)
		if w := labelWidth(flags); w > width {
			width = w
		}

		var sb strings.Builder
		sb.WriteString(TitleStyle.Render("StompTuner 🎸"))
		sb.WriteString("\n")
		sb.WriteString(SubtitleStyle.Render(ctx.Model.Help))
		sb.WriteString("\n\n")

		sb.WriteString(HeaderStyle.Render("Usage:"))
		sb.WriteString("\n  ")
		sb.WriteString(fmt.Sprintf("%s [flags] [<file>]", ctx.Model.Name))
		sb.WriteString("\n")

		writeSection(&sb, "Arguments:", args, width)
		writeSection(&sb, "Flags:", flags, width)

		sb.WriteString("\n")
		fmt.Fprint(ctx.Stdout, sb.String())
		return nil
	}
}

// collectRows walks the kong model and splits it into positional and
// flag rows. The implicit help flag leads the flag list.
func collectRows(ctx *kong.Context) (args, flags []helpRow) {
	for _, pos := range ctx.Model.Node.Positional {
		args = append(args, helpRow{
			label:      pos.Summary(),
			help:       pos.Help,
			positional: true,
		})
	}

	flags = append(flags, helpRow{
		label: "-h, --help",
		help:  "Show context-sensitive help.",
	})
	for _, f := range ctx.Model.Node.Flags {
		if f.Name == "help" {
			continue
		}
		label := "--" + f.Name
		if f.Short != 0 {
			label = fmt.Sprintf("-%c, %s", f.Short, label)
		}
		if !f.IsBool() && f.PlaceHolder != "" {
			label += "=" + strings.ToUpper(f.PlaceHolder)
		}
		flags = append(flags, helpRow{
			label:      label,
			help:       f.Help,
			defaultVal: f.FormatPlaceHolder(),
		})
	}
	return args, flags
}

// labelWidth returns the widest label so every row's help text starts
// in the same column.
func labelWidth(rows []helpRow) int {
	width := 0
	for _, r := range rows {
		if len(r.label) > width {
			width = len(r.label)
		}
	}
	return width
}

// writeSection renders one titled block of rows. Labels are padded
// before styling so the ANSI escapes do not upset the alignment.
func writeSection(sb *strings.Builder, title string, rows []helpRow, width int) {
	if len(rows) == 0 {
		return
	}
	sb.WriteString("\n")
	sb.WriteString(HeaderStyle.Render(title))
	sb.WriteString("\n")
	for _, r := range rows {
		style := helpFlagStyle
		if r.positional {
			style = helpArgStyle
		}
		sb.WriteString("  ")
		sb.WriteString(style.Render(r.label))
		sb.WriteString(strings.Repeat(" ", width-len(r.label)+2))
		sb.WriteString(r.help)
		if r.defaultVal != "" {
			sb.WriteString(" ")
			sb.WriteString(helpDefaultStyle.Render("(default: " + r.defaultVal + ")"))
		}
		sb.WriteString("\n")
	}
}
