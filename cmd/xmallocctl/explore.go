package main

import (
	"bytes"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	overlay "github.com/rmhubbert/bubbletea-overlay"
	"github.com/spf13/cobra"

	"github.com/joshuapare/xmalloc/alloc"
)

var (
	exploreSeed     int64
	exploreInterval time.Duration
)

func init() {
	cmd := newExploreCmd()
	cmd.Flags().Int64Var(&exploreSeed, "seed", 1, "Random seed for the operation mix")
	cmd.Flags().DurationVar(&exploreInterval, "interval", 100*time.Millisecond, "Delay between auto steps")
	rootCmd.AddCommand(cmd)
}

func newExploreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Watch the heap change interactively",
		Long: `The explore command opens a terminal UI that applies random alloc, free
and realloc operations one at a time and draws the region after each one:
allocated space, free space, and cells holding both.

Example:
  xmallocctl explore
  xmallocctl explore --policy first-fit --coalesce scan
  xmallocctl explore --region-size 4194304 --interval 20ms`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := allocConfig(alloc.DefaultRegionSize)
			if err != nil {
				return err
			}
			m := newExploreModel(alloc.New(cfg), exploreSeed, exploreInterval)
			defer m.a.Reset() //nolint:errcheck // process is about to exit

			p := tea.NewProgram(m, tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
	return cmd
}

// tickMsg drives auto-stepping.
type tickMsg time.Time

// exploreModel is the bubbletea model of the explore command.
type exploreModel struct {
	a        *alloc.Allocator
	rng      *rand.Rand
	live     []alloc.Ptr
	steps    int
	last     string
	lastErr  error
	auto     bool
	interval time.Duration
	showHelp bool
	status   string

	width, height int
	keys          KeyMap
	help          help.Model
}

func newExploreModel(a *alloc.Allocator, seed int64, interval time.Duration) exploreModel {
	return exploreModel{
		a:        a,
		rng:      rand.New(rand.NewSource(seed)),
		interval: interval,
		width:    80,
		height:   24,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		last:     "nothing yet",
	}
}

func (m exploreModel) Init() tea.Cmd { return nil }

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		if !m.auto {
			return m, nil
		}
		m.step()
		return m, m.tick()

	case tea.KeyMsg:
		if m.showHelp {
			// Any key closes the overlay.
			m.showHelp = false
			return m, nil
		}
		m.status = ""
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Step):
			m.step()
		case key.Matches(msg, m.keys.Burst):
			for range 100 {
				m.step()
			}
		case key.Matches(msg, m.keys.Auto):
			m.auto = !m.auto
			if m.auto {
				return m, m.tick()
			}
		case key.Matches(msg, m.keys.Reset):
			m.reset()
		case key.Matches(msg, m.keys.Copy):
			m.copyBlocks()
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
		}
	}
	return m, nil
}

func (m exploreModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// step applies one random operation: half allocations, the rest split
// between frees and reallocs of a random live block.
func (m *exploreModel) step() {
	m.steps++
	m.lastErr = nil

	op := m.rng.Intn(10)
	switch {
	case op < 5 || len(m.live) == 0:
		size := m.randomSize()
		p, err := m.a.Alloc(size)
		if err != nil {
			m.last, m.lastErr = fmt.Sprintf("alloc(%d)", size), err
			return
		}
		m.live = append(m.live, p)
		m.last = fmt.Sprintf("alloc(%d) = %#x", size, uint64(p))

	case op < 8:
		i := m.rng.Intn(len(m.live))
		p := m.live[i]
		if err := m.a.Free(p); err != nil {
			m.last, m.lastErr = fmt.Sprintf("free(%#x)", uint64(p)), err
			return
		}
		m.forget(i)
		m.last = fmt.Sprintf("free(%#x)", uint64(p))

	default:
		i := m.rng.Intn(len(m.live))
		p := m.live[i]
		size := m.randomSize()
		np, err := m.a.Realloc(p, size)
		if err != nil && np == alloc.Null {
			m.last, m.lastErr = fmt.Sprintf("realloc(%#x, %d)", uint64(p), size), err
			return
		}
		m.live[i] = np
		if err != nil {
			// Moved, but the old block is still allocated.
			m.live = append(m.live, p)
			m.lastErr = err
		}
		m.last = fmt.Sprintf("realloc(%#x, %d) = %#x", uint64(p), size, uint64(np))
	}
}

func (m *exploreModel) randomSize() int {
	if m.rng.Intn(20) == 0 {
		return 1024 + m.rng.Intn(64*1024)
	}
	return 1 + m.rng.Intn(512)
}

func (m *exploreModel) forget(i int) {
	m.live[i] = m.live[len(m.live)-1]
	m.live = m.live[:len(m.live)-1]
}

func (m *exploreModel) reset() {
	if err := m.a.Reset(); err != nil {
		m.status = fmt.Sprintf("reset: %v", err)
		return
	}
	m.live = m.live[:0]
	m.steps = 0
	m.last = "reset"
	m.lastErr = nil
}

func (m *exploreModel) copyBlocks() {
	var buf bytes.Buffer
	writeBlockTable(&buf, m.a.Blocks())
	if err := clipboard.WriteAll(buf.String()); err != nil {
		m.status = fmt.Sprintf("copy failed: %v", err)
		return
	}
	m.status = fmt.Sprintf("copied %d blocks", len(m.a.Blocks()))
}

// View renders the entire UI
func (m exploreModel) View() string {
	if m.showHelp {
		return overlay.New(
			helpOverlay{keys: m.keys},
			exploreMainView{model: &m},
			overlay.Center,
			overlay.Center,
			0,
			0,
		).View()
	}
	return m.renderMain()
}

func (m exploreModel) renderMain() string {
	header := lipgloss.JoinHorizontal(
		lipgloss.Top,
		styled(headerStyle, "xmalloc heap explorer"),
		"  ",
		styled(labelStyle, fmt.Sprintf("%s / %s coalescing", m.a.Config().Policy, m.a.Config().Coalesce)),
	)

	mapWidth := max(m.width-32, 16)
	mapRows := max(m.height-8, 4)
	heapMap := styled(paneStyle, renderHeapMap(m.a.Blocks(), m.a.Region().Size(), mapWidth, mapRows))

	content := lipgloss.JoinHorizontal(lipgloss.Top, heapMap, " ", styled(paneStyle, m.renderStats()))

	status := fmt.Sprintf("step %d: %s", m.steps, m.last)
	if m.lastErr != nil {
		status += "  " + styled(errorStyle, m.lastErr.Error())
	}
	if m.auto {
		status += "  " + styled(successStyle, "[auto]")
	}
	if m.status != "" {
		status += "  " + styled(valueStyle, m.status)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		status,
		m.help.View(m.keys),
	)
}

func (m exploreModel) renderStats() string {
	s := m.a.Stats()
	rows := []struct {
		label string
		value string
	}{
		{"Region", fmt.Sprintf("%d B", s.RegionSize)},
		{"Live", fmt.Sprintf("%d (%d B)", s.LiveBlocks, s.LiveBytes)},
		{"Free", fmt.Sprintf("%d (%d B)", s.FreeBlocks, s.FreeBytes)},
		{"Largest", fmt.Sprintf("%d B", s.LargestFree)},
		{"Frag", fmt.Sprintf("%.1f%%", 100*s.Fragmentation())},
		{"Splits", fmt.Sprintf("%d", s.SplitCount)},
		{"Merges", fmt.Sprintf("%d", s.CoalesceForward+s.CoalesceBackward)},
		{"OOM", fmt.Sprintf("%d", s.OutOfMemory)},
	}
	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(styled(labelStyle, fmt.Sprintf("%-8s", r.label)))
		b.WriteString(styled(valueStyle, r.value))
	}
	legend := fmt.Sprintf("\n\n%s live  %s free  %s both",
		renderRun(cellLive, 1), renderRun(cellFree, 1), renderRun(cellMixed, 1))
	b.WriteString(legend)
	return b.String()
}

// exploreMainView wraps the main UI for use as overlay background
type exploreMainView struct {
	model *exploreModel
}

func (v exploreMainView) Init() tea.Cmd                       { return nil }
func (v exploreMainView) Update(tea.Msg) (tea.Model, tea.Cmd) { return v, nil }
func (v exploreMainView) View() string                        { return v.model.renderMain() }

// helpOverlay is the modal listing every key binding.
type helpOverlay struct {
	keys KeyMap
}

func (h helpOverlay) Init() tea.Cmd                       { return nil }
func (h helpOverlay) Update(tea.Msg) (tea.Model, tea.Cmd) { return h, nil }

func (h helpOverlay) View() string {
	const keyWidth = 10

	var b strings.Builder
	b.WriteString(helpTitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, col := range h.keys.FullHelp() {
		for _, kb := range col {
			hb := kb.Help()
			b.WriteString(helpKeyStyle.Width(keyWidth).Render(hb.Key))
			b.WriteString("  ")
			b.WriteString(helpDescStyle.Render(hb.Desc))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(helpDescStyle.Render("Press any key to close"))
	return modalStyle.Render(b.String())
}
