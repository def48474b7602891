package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Joachimzeelmaekers/ai-tooling/internal"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var (
	sessionsSource string
	sessionsLimit  int
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	sourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Italic(true)
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List sessions found in the sources",
	Long: `List every session found in the configured sources with its message and
pair counts, most recently active first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if sessionsSource != "" {
			if _, err := internal.NewLoader(internal.Source(sessionsSource)); err != nil {
				return err
			}
		}

		p := &internal.Pipeline{
			Sources: lo.Filter(cfg.SourceRoots(), func(src internal.SourceRoot, _ int) bool {
				return sessionsSource == "" || string(src.Loader.Source()) == sessionsSource
			}),
			Options: cfg.Options,
			Counter: internal.NewTokenCounter(nil),
		}

		result, err := p.Run(cmd.Context())
		if errors.Is(err, internal.ErrNoData) {
			displaySessions(cmd.OutOrStdout(), nil, time.Now())
			return nil
		}
		if err != nil {
			return err
		}

		sessions := sortSessions(result.Sessions)
		if sessionsLimit > 0 && len(sessions) > sessionsLimit {
			sessions = sessions[:sessionsLimit]
		}
		displaySessions(cmd.OutOrStdout(), sessions, time.Now())
		return nil
	},
}

// sortSessions orders by last activity, newest first; sessions without a
// timestamp go last
func sortSessions(sessions []internal.SessionSummary) []internal.SessionSummary {
	sorted := make([]internal.SessionSummary, len(sessions))
	copy(sorted, sessions)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].LastActivity, sorted[j].LastActivity
		if a == nil || b == nil {
			return a != nil
		}
		return a.After(*b)
	})
	return sorted
}

func displaySessions(w io.Writer, sessions []internal.SessionSummary, now time.Time) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, headerStyle.Render("📋 No sessions found"))
		return
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("📋 Found %d session(s)", len(sessions))))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, titleStyle.Render("ID")+"\t"+titleStyle.Render("Source")+"\t"+titleStyle.Render("Title")+"\t"+
		titleStyle.Render("Messages")+"\t"+titleStyle.Render("Pairs")+"\t"+titleStyle.Render("Last activity")+"\t")
	_, _ = fmt.Fprintln(tw, strings.Repeat("─", 110))

	for _, s := range sessions {
		title := s.Title
		if title == "" {
			title = "Untitled"
		}
		if runes := []rune(title); len(runes) > 50 {
			title = string(runes[:47]) + "..."
		}

		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(s.ID),
			sourceStyle.Render(string(s.Source)),
			title,
			countStyle.Render(strconv.Itoa(s.Messages)),
			countStyle.Render(strconv.Itoa(s.Pairs)),
			dateStyle.Render(formatActivity(s.LastActivity, now)),
		)
	}

	_ = tw.Flush()
	fmt.Fprintln(w)
	fmt.Fprintln(w, idStyle.Render("💡 Tip: export one session with ")+
		lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render("prompt-pairs export --session-id "+sessions[0].ID))
}

// formatActivity renders a timestamp relative to now in local time
func formatActivity(t *time.Time, now time.Time) string {
	if t == nil {
		return "—"
	}
	local := t.Local()
	diff := now.Sub(*t)
	switch {
	case diff < 24*time.Hour:
		return local.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return local.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return local.Format("Jan 02 15:04")
	default:
		return local.Format("2006-01-02")
	}
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.Flags().StringVar(&sessionsSource, "source", "", "Only list sessions from this source (claude, opencode)")
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 0, "Show at most this many sessions (0 shows all)")
}
