package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/fractal-global/fractal-go/pkg/fractal"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// requestListModel is the bubbletea model for reviewing pending friend
// requests. Enter accepts the highlighted request; q leaves the rest
// pending.
type requestListModel struct {
	requests []fractal.PendingFriendRequest
	cursor   int
	selected *fractal.PendingFriendRequest
	height   int
	offset   int
}

func newRequestListModel(requests []fractal.PendingFriendRequest) requestListModel {
	return requestListModel{
		requests: requests,
		height:   15,
	}
}

func (m requestListModel) Init() tea.Cmd {
	return nil
}

func (m requestListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.requests)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter":
			req := m.requests[m.cursor]
			m.selected = &req
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m requestListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Pending Friend Requests"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ accept  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.requests) {
		end = len(m.requests)
	}

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		req := m.requests[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		message := "—"
		if req.Message != nil && *req.Message != "" {
			message = *req.Message
		}

		rows = append(rows, []string{
			cursor,
			strconv.FormatUint(req.Origin, 10),
			string(req.Relationship),
			message,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "From", "Relation", "Message").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.offset+row == m.cursor {
				return listSelectedStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.requests))))

	return b.String()
}
