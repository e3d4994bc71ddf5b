// Package ansi maps semantic color roles to escape sequences for each
// supported shell flavor.
package ansi

import (
	"fmt"
	"strings"

	"github.com/muesli/termenv"
)

// Shell selects how escape sequences are wrapped so the shell can compute
// the visible prompt width.
type Shell int

const (
	Zsh Shell = iota
	Bash
	Nushell
	Plain
)

// ParseShell accepts the shell names used on the command line and in the
// config file.
func ParseShell(s string) (Shell, error) {
	switch strings.ToLower(s) {
	case "zsh":
		return Zsh, nil
	case "bash":
		return Bash, nil
	case "nu", "nushell":
		return Nushell, nil
	case "plain", "none":
		return Plain, nil
	default:
		return Zsh, fmt.Errorf("unsupported shell %q (want bash, zsh, nushell or plain)", s)
	}
}

func (s Shell) String() string {
	switch s {
	case Bash:
		return "bash"
	case Nushell:
		return "nushell"
	case Plain:
		return "plain"
	default:
		return "zsh"
	}
}

// Role is a semantic color applied to a prompt fragment.
type Role int

const (
	Reset Role = iota
	Normal
	Bold
	Dim
	Italic
	Red
	RedBold
	Yellow
	Blue
	Magenta
)

var roleNames = [...]string{
	Reset:   "reset",
	Normal:  "normal",
	Bold:    "bold",
	Dim:     "dim",
	Italic:  "italic",
	Red:     "red",
	RedBold: "red_bold",
	Yellow:  "yellow",
	Blue:    "blue",
	Magenta: "magenta",
}

// ParseRole resolves a role name such as "dim" or "red_bold".
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(s)
	for r, name := range roleNames {
		if name == s {
			return Role(r), nil
		}
	}
	return Normal, fmt.Errorf("unknown color role %q", s)
}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return "normal"
	}
	return roleNames[r]
}

// defaultFg is SGR 39, the terminal's default foreground.
const defaultFg = "39"

func sgr(params ...string) string {
	return termenv.CSI + strings.Join(params, ";") + "m"
}

var sequences = map[Role]string{
	Reset:   sgr(termenv.ResetSeq),
	Normal:  sgr(termenv.ResetSeq, defaultFg),
	Bold:    sgr(termenv.BoldSeq, defaultFg),
	Dim:     sgr(termenv.FaintSeq, defaultFg),
	Italic:  sgr(termenv.ItalicSeq, defaultFg),
	Red:     sgr(termenv.ANSIRed.Sequence(false)),
	RedBold: sgr(termenv.BoldSeq, termenv.ANSIRed.Sequence(false)),
	Yellow:  sgr(termenv.ResetSeq, termenv.ANSIYellow.Sequence(false)),
	Blue:    sgr(termenv.ANSIBlue.Sequence(false)),
	Magenta: sgr(termenv.ANSIMagenta.Sequence(false)),
}

// Sequence returns the raw escape sequence for r, without shell wrapping.
func Sequence(r Role) string {
	return sequences[r]
}

// Seq returns the escape sequence for r wrapped for the shell. Plain
// returns the empty string.
func (s Shell) Seq(r Role) string {
	raw := sequences[r]
	switch s {
	case Bash:
		// See https://github.com/starship/starship/issues/110
		return `\[` + raw + `\]`
	case Zsh:
		return "%{" + raw + "%}"
	case Nushell:
		return raw
	default:
		return ""
	}
}

// Bash decodes backslash escapes in PS1 first, then expands the result as
// if it were double quoted. Each special character needs a backslash that
// survives the first pass.
var bashEscaper = strings.NewReplacer(
	`\`, `\\\\`,
	"$", `\\$`,
	"`", "\\\\`",
)

// Escape makes text print literally in the shell's prompt string. Text
// from the file system or the repository must go through it before being
// mixed with escape sequences.
func (s Shell) Escape(text string) string {
	switch s {
	case Bash:
		return bashEscaper.Replace(text)
	case Zsh:
		return strings.ReplaceAll(text, "%", "%%")
	default:
		return text
	}
}
