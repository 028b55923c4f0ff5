package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"

	"github.com/capitalhub-dev/capitalhub/internal/cli/session"
)

// ErrNonInteractive is returned when input is needed but stdin is not a terminal
var ErrNonInteractive = errors.New("input required in non-interactive mode")

// Prompter asks the user for what flags and environment did not provide
type Prompter interface {
	Input(label, defaultValue string) (string, error)
	Password(label string) (string, error)
	SelectRole(label string, roles []session.Role) (session.Role, error)
	Confirm(label string) (bool, error)
}

// Terminal prompts on the controlling terminal
type Terminal struct {
	In  *os.File
	Out io.Writer
}

// NewTerminal prompts on stdin and writes labels to stderr
func NewTerminal() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stderr}
}

// Interactive reports whether the input is a terminal
func (t *Terminal) Interactive() bool {
	return term.IsTerminal(int(t.In.Fd()))
}

// Input reads one line of visible text
func (t *Terminal) Input(label, defaultValue string) (string, error) {
	if !t.Interactive() {
		return "", fmt.Errorf("%s: %w", strings.ToLower(label), ErrNonInteractive)
	}

	p := promptui.Prompt{
		Label:   label,
		Default: defaultValue,
		Stdin:   t.In,
	}
	value, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("input cancelled: %w", err)
	}
	return strings.TrimSpace(value), nil
}

// Password reads a line without echoing it
func (t *Terminal) Password(label string) (string, error) {
	if !t.Interactive() {
		return "", fmt.Errorf("%s: %w", strings.ToLower(label), ErrNonInteractive)
	}

	fmt.Fprintf(t.Out, "%s: ", label)
	bytePassword, err := term.ReadPassword(int(t.In.Fd()))
	fmt.Fprintln(t.Out) // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

// SelectRole shows an interactive list of roles
func (t *Terminal) SelectRole(label string, roles []session.Role) (session.Role, error) {
	if len(roles) == 0 {
		return "", fmt.Errorf("no roles to choose from")
	}
	if !t.Interactive() {
		return "", fmt.Errorf("role: %w", ErrNonInteractive)
	}

	type roleOption struct {
		Label string
		Role  session.Role
	}

	options := make([]roleOption, len(roles))
	for i, role := range roles {
		options[i] = roleOption{Label: RoleLabel(role), Role: role}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	sel := promptui.Select{
		Label:     label,
		Items:     options,
		Templates: templates,
		Size:      len(options),
		Stdin:     t.In,
	}

	index, _, err := sel.Run()
	if err != nil {
		return "", fmt.Errorf("role selection cancelled: %w", err)
	}
	return options[index].Role, nil
}

// Confirm asks a yes/no question. Anything but yes is a no.
func (t *Terminal) Confirm(label string) (bool, error) {
	if !t.Interactive() {
		return false, fmt.Errorf("confirmation: %w", ErrNonInteractive)
	}

	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     t.In,
	}
	if _, err := p.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, fmt.Errorf("confirmation cancelled: %w", err)
	}
	return true, nil
}

// RoleLabel is how a role is shown to people
func RoleLabel(role session.Role) string {
	switch role {
	case session.RoleRep:
		return "Sales rep (setter, closer, cold caller)"
	case session.RoleCompany:
		return "Company (hiring)"
	case session.RoleAdmin:
		return "Administrator"
	default:
		return string(role)
	}
}
