package review

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const prompt = "Matching candidates (a = all, n = none, 0,2 = those, q = quit): "

// Terminal is the interactive Presenter: it prints a candidate table, opens
// the local file and each candidate page, then prompts until the answer
// parses.
type Terminal struct {
	in       *bufio.Reader
	out      io.Writer
	launcher Launcher
	postURL  func(id int64) string
	color    bool
}

// TerminalOption customizes a Terminal.
type TerminalOption func(*Terminal)

// WithColor enables ANSI colors in the candidate table.
func WithColor(enabled bool) TerminalOption {
	return func(t *Terminal) { t.color = enabled }
}

// NewTerminal builds a Presenter over in/out. postURL renders the board link
// for a remote id; launcher may be nil to skip opening anything.
func NewTerminal(in io.Reader, out io.Writer, launcher Launcher, postURL func(id int64) string, opts ...TerminalOption) *Terminal {
	t := &Terminal{
		in:       bufio.NewReader(in),
		out:      out,
		launcher: launcher,
		postURL:  postURL,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Present implements Presenter. End of input is treated as quit.
func (t *Terminal) Present(ctx context.Context, item Item) (Decision, error) {
	fmt.Fprintf(t.out, "\n[%d/%d] %s\n", item.Position, item.Total, item.Image.Path)
	fmt.Fprintln(t.out, t.renderCandidates(item))
	t.open(ctx, item)

	for {
		if err := ctx.Err(); err != nil {
			return Decision{}, err
		}
		fmt.Fprint(t.out, prompt)
		line, err := t.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Decision{}, fmt.Errorf("read answer: %w", err)
		}
		if errors.Is(err, io.EOF) && strings.TrimSpace(line) == "" {
			fmt.Fprintln(t.out)
			return Decision{Action: ActionQuit}, nil
		}
		decision, perr := ParseDecision(line, len(item.Candidates))
		if perr == nil {
			return decision, nil
		}
		fmt.Fprintf(t.out, "%v\n", perr)
		if errors.Is(err, io.EOF) {
			return Decision{Action: ActionQuit}, nil
		}
	}
}

func (t *Terminal) renderCandidates(item Item) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if t.color {
		tw.Style().Color.Header = text.Colors{text.FgHiMagenta, text.Bold}
	}
	tw.AppendHeader(table.Row{"#", "Post", "Similarity", "Link"})
	for i, c := range item.Candidates {
		tw.AppendRow(table.Row{
			strconv.Itoa(i),
			strconv.FormatInt(c.RemoteID, 10),
			fmt.Sprintf("%.1f%%", c.Similarity),
			t.link(c.RemoteID),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	return tw.Render()
}

func (t *Terminal) link(id int64) string {
	if t.postURL == nil {
		return ""
	}
	return t.postURL(id)
}

func (t *Terminal) open(ctx context.Context, item Item) {
	if t.launcher == nil {
		return
	}
	targets := []string{item.Image.Path}
	for _, c := range item.Candidates {
		if link := t.link(c.RemoteID); link != "" {
			targets = append(targets, link)
		}
	}
	for _, target := range targets {
		if err := t.launcher.Open(ctx, target); err != nil {
			fmt.Fprintf(t.out, "could not open %s: %v\n", target, err)
		}
	}
}
