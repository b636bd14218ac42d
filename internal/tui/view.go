package tui

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/evanschultz/taskflow/internal/app"
	"github.com/evanschultz/taskflow/internal/domain"
)

// navigatorWidth is the fixed width of the category sidebar.
const navigatorWidth = 30

// cardLines is the rendered height of one card including its gap.
const cardLines = 4

// ANSI 256 color specs of the fixed board colors.
const (
	accentSpec  = "62"
	mutedSpec   = "241"
	dimSpec     = "239"
	textSpec    = "252"
	successSpec = "42"
	errorSpec   = "196"
	warnSpec    = "214"
)

var (
	accentColor  = lipgloss.Color(accentSpec)
	mutedColor   = lipgloss.Color(mutedSpec)
	dimColor     = lipgloss.Color(dimSpec)
	textColor    = lipgloss.Color(textSpec)
	successColor = lipgloss.Color(successSpec)
	errorColor   = lipgloss.Color(errorSpec)
	warnColor    = lipgloss.Color(warnSpec)
)

// Swatch names one board color and its color spec.
type Swatch struct {
	Role string
	Spec string
}

// BoardColors lists the fixed colors the board draws with.
func BoardColors() []Swatch {
	return []Swatch{
		{Role: "accent, focus border", Spec: accentSpec},
		{Role: "muted text", Spec: mutedSpec},
		{Role: "dim text, idle column border", Spec: dimSpec},
		{Role: "body text", Spec: textSpec},
		{Role: "success toast, low priority", Spec: successSpec},
		{Role: "error toast, high priority, overdue", Spec: errorSpec},
		{Role: "medium priority, due today, drop target", Spec: warnSpec},
	}
}

// View renders the whole screen.
func (m Model) View() tea.View {
	if !m.ready {
		return newView("loading...")
	}

	header := m.renderHeader()
	toast := m.renderToast()
	helpLine := lipgloss.NewStyle().
		Foreground(mutedColor).
		BorderTop(true).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(m.help.View(m.keys))

	bodyHeight := max(8, m.height-lipgloss.Height(header)-lipgloss.Height(helpLine)-1)
	nav := m.renderNavigator(bodyHeight)
	board := m.renderBoard(max(0, m.width-navigatorWidth-1), bodyHeight)
	body := lipgloss.JoinHorizontal(lipgloss.Top, nav, " ", board)

	sections := []string{header, body}
	if toast != "" {
		sections = append(sections, toast)
	}
	sections = append(sections, helpLine)
	content := strings.Join(sections, "\n")

	if overlay := m.renderOverlay(); overlay != "" {
		content = overlayOnContent(content, overlay, max(1, m.width), max(1, m.height))
	}
	return newView(content)
}

func newView(content string) tea.View {
	v := tea.NewView(content)
	v.AltScreen = true
	return v
}

// renderHeader renders the title, visible count and active filters.
func (m Model) renderHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(textColor)
	statusStyle := lipgloss.NewStyle().Foreground(dimColor)

	header := titleStyle.Render("taskflow") + "  " + titleStyle.Render(m.store.Title())
	header += "  " + lipgloss.NewStyle().Foreground(mutedColor).Render(taskCountLabel(len(m.store.VisibleTasks())))
	if query := m.store.Search(); query != "" {
		header += statusStyle.Render(fmt.Sprintf("  search: %q", truncate(query, 32)))
	}
	if n := len(m.store.PriorityFilter()); n > 0 {
		header += statusStyle.Render(fmt.Sprintf("  filters: %d", n))
	}
	if m.store.Loading() {
		header += statusStyle.Render("  loading…")
	}
	if m.mode == modeDrag && m.drag.Active() {
		header += lipgloss.NewStyle().Foreground(warnColor).Render(
			fmt.Sprintf("  moving %q → %s", truncate(m.drag.Task().Title, 24), m.drag.Target().Label()),
		)
	}
	lines := []string{header}
	if m.mode == modeSearch {
		lines = append(lines, m.searchInput.View())
	}
	return strings.Join(lines, "\n")
}

// taskCountLabel renders "1 task" or "N tasks".
func taskCountLabel(n int) string {
	if n == 1 {
		return "1 task"
	}
	return fmt.Sprintf("%d tasks", n)
}

// renderNavigator renders the category sidebar with stats footer.
func (m Model) renderNavigator(height int) string {
	focused := m.focus == paneCategories
	border := dimColor
	if focused {
		border = accentColor
	}
	innerWidth := navigatorWidth - 4
	stats := m.store.Stats()
	selected := m.store.SelectedCategory()

	lines := []string{lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Categories"), ""}
	lines = append(lines, m.navigatorRow(0, "", nil, app.AllTasksTitle, strconv.Itoa(stats.Total), selected == "", innerWidth))
	for i, c := range m.store.Categories() {
		swatch := lipgloss.Color(c.Color)
		lines = append(lines, m.navigatorRow(i+1, "●", swatch, c.Name, m.navigatorCount(c.ID), selected == c.ID, innerWidth))
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(mutedColor).Render("+ new category (N)"))

	footer := lipgloss.NewStyle().Foreground(mutedColor).Render(
		fmt.Sprintf("To Do: %d  Done: %d", stats.Todo, stats.Done),
	)
	content := fitLines(strings.Join(lines, "\n"), max(1, height-3))
	content += "\n" + footer

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(navigatorWidth).
		Render(content)
}

// navigatorRow renders one navigator entry: cursor, swatch, name and count.
// navigatorCount is the task count shown beside a category. The snapshot only
// holds the selected category's tasks while one is selected, so other rows
// show no count then.
func (m Model) navigatorCount(categoryID string) string {
	selected := m.store.SelectedCategory()
	if selected != "" && selected != categoryID {
		return ""
	}
	return strconv.Itoa(m.store.TaskCount(categoryID))
}

func (m Model) navigatorRow(idx int, swatch string, swatchColor color.Color, name string, countText string, active bool, width int) string {
	cursor := "  "
	if m.focus == paneCategories && m.categoryCursor == idx {
		cursor = "› "
	}
	mark := "  "
	if swatch != "" {
		mark = lipgloss.NewStyle().Foreground(swatchColor).Render(swatch) + " "
	}
	nameWidth := max(1, width-lipgloss.Width(cursor)-2-len(countText)-1)
	nameStyle := lipgloss.NewStyle().Foreground(textColor)
	if active {
		nameStyle = nameStyle.Bold(true).Foreground(accentColor)
	}
	label := nameStyle.Render(truncate(name, nameWidth))
	pad := max(1, width-lipgloss.Width(cursor)-lipgloss.Width(mark)-lipgloss.Width(label)-len(countText))
	return cursor + mark + label + strings.Repeat(" ", pad) + lipgloss.NewStyle().Foreground(mutedColor).Render(countText)
}

// renderBoard renders the three status columns.
func (m Model) renderBoard(width, height int) string {
	statuses := domain.Statuses()
	// per column: border (2), padding (2), margin (1)
	const colOverhead = 5
	colWidth := max(18, (width/len(statuses))-colOverhead)
	board := m.store.Board()
	views := make([]string, 0, len(statuses))
	for i, status := range statuses {
		views = append(views, m.renderColumn(i, status, board.Column(status), colWidth, height))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, views...)
}

// renderColumn renders one column with a windowed card list.
func (m Model) renderColumn(idx int, status domain.Status, tasks []domain.Task, width, height int) string {
	border := dimColor
	switch {
	case m.mode == modeDrag && m.drag.Target() == status:
		border = warnColor
	case m.focus == paneBoard && m.selectedColumn == idx:
		border = accentColor
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render(
		fmt.Sprintf("%s (%d)", status.Label(), len(tasks)),
	)
	lines := []string{title, ""}

	innerHeight := max(cardLines, height-2)
	reserved := 2
	if domain.AllowsAdd(status) {
		reserved++
	}
	windowSize := max(1, (innerHeight-reserved)/cardLines)
	selectedRow := m.selectedRows[idx]
	start, end := windowBounds(len(tasks), selectedRow, windowSize)
	if len(tasks) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(dimColor).Render("No tasks"))
	}
	if start > 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(dimColor).Render(fmt.Sprintf("↑ %d more", start)))
	}
	for row := start; row < end; row++ {
		selected := m.focus == paneBoard && m.selectedColumn == idx && selectedRow == row
		lines = append(lines, m.renderCard(tasks[row], selected, width))
	}
	if end < len(tasks) {
		lines = append(lines, lipgloss.NewStyle().Foreground(dimColor).Render(fmt.Sprintf("↓ %d more", len(tasks)-end)))
	}
	if domain.AllowsAdd(status) {
		lines = append(lines, lipgloss.NewStyle().Foreground(mutedColor).Render("+ add task (n)"))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		MarginRight(1).
		Width(width).
		Render(fitLines(strings.Join(lines, "\n"), innerHeight))
}

// renderCard renders a task card: title, then priority, category and due badges.
func (m Model) renderCard(t domain.Task, selected bool, width int) string {
	titleStyle := lipgloss.NewStyle().Foreground(textColor)
	if t.IsDone() {
		titleStyle = titleStyle.Foreground(mutedColor).Strikethrough(true)
	}
	prefix := "  "
	if selected {
		prefix = "▸ "
		titleStyle = titleStyle.Bold(true).Foreground(lipgloss.Color("212"))
	}
	lines := []string{prefix + titleStyle.Render(truncate(t.Title, max(1, width-2)))}

	meta := []string{lipgloss.NewStyle().Foreground(priorityColor(t.Priority)).Render(t.Priority.Label())}
	if c, ok := m.store.CategoryByID(t.CategoryID); ok {
		meta = append(meta, lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render("● "+c.Name))
	}
	today := domain.DateOf(m.now())
	if label := t.DueLabel(today); label != "" {
		style := lipgloss.NewStyle().Foreground(mutedColor)
		switch t.DueState(today) {
		case domain.DueOverdue:
			style = style.Foreground(errorColor)
		case domain.DueToday:
			style = style.Foreground(warnColor)
		}
		meta = append(meta, style.Render(label))
	}
	lines = append(lines, "  "+strings.Join(meta, " · "))

	if m.showDescription {
		desc := strings.TrimSpace(strings.SplitN(t.Description, "\n", 2)[0])
		lines = append(lines, "  "+lipgloss.NewStyle().Foreground(dimColor).Render(truncate(desc, max(1, width-2))))
	} else {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func priorityColor(p domain.Priority) color.Color {
	switch p {
	case domain.PriorityHigh:
		return errorColor
	case domain.PriorityMedium:
		return warnColor
	case domain.PriorityLow:
		return successColor
	default:
		return mutedColor
	}
}

// renderToast renders the newest notification.
func (m Model) renderToast() string {
	n, ok := m.store.LatestNotification()
	if !ok {
		return ""
	}
	fg := mutedColor
	icon := "•"
	switch n.Level {
	case app.LevelSuccess:
		fg, icon = successColor, "✓"
	case app.LevelError:
		fg, icon = errorColor, "✗"
	}
	return lipgloss.NewStyle().Foreground(fg).Padding(0, 1).Render(icon + " " + n.Message)
}

// renderOverlay renders the modal for the active input mode.
func (m Model) renderOverlay() string {
	maxWidth := max(30, min(72, m.width-8))
	switch m.mode {
	case modeEditor:
		return m.renderEditor(maxWidth)
	case modeTaskInfo:
		return m.renderTaskInfo(maxWidth)
	case modeCategoryForm:
		return m.renderCategoryForm(maxWidth)
	case modePriorityMenu:
		return m.renderPriorityMenu()
	case modeConfirmDelete:
		return m.renderConfirm()
	}
	return ""
}

func modalStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(1, 2).
		Width(width)
}

func modalTitle(text string) string {
	return lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render(text)
}

// renderEditor renders the task editor form.
func (m Model) renderEditor(width int) string {
	heading := "New Task"
	if !m.editor.draft.IsNew() {
		heading = "Edit Task"
	}
	labelStyle := lipgloss.NewStyle().Foreground(mutedColor).Width(13)
	focusedLabel := labelStyle.Foreground(accentColor).Bold(true)

	values := []string{
		m.editor.title.View(),
		m.editor.description.View(),
		"‹ " + m.editor.draft.Status.Label() + " ›",
		"‹ " + m.editor.draft.Priority.Label() + " ›",
		"‹ " + m.editorCategoryLabel() + " ›",
		m.editor.due.View(),
	}
	lines := []string{modalTitle(heading), ""}
	for i, label := range editorFieldLabels {
		style := labelStyle
		if i == m.editor.focus {
			style = focusedLabel
		}
		lines = append(lines, style.Render(label)+values[i])
	}
	lines = append(lines, "")
	if m.editor.err != nil {
		lines = append(lines, lipgloss.NewStyle().Foreground(errorColor).Render(m.editor.err.Error()))
	}
	submit := "enter save"
	if !m.editor.canSubmit() {
		submit = lipgloss.NewStyle().Foreground(dimColor).Render("enter save (title required)")
	} else if m.saving {
		submit = "saving…"
	}
	lines = append(lines, lipgloss.NewStyle().Foreground(mutedColor).Render("tab next • ←/→ change • esc cancel • ")+submit)
	return modalStyle(width).Render(strings.Join(lines, "\n"))
}

func (m Model) editorCategoryLabel() string {
	if c, ok := m.store.CategoryByID(m.editor.draft.CategoryID); ok {
		return c.Name
	}
	return "No category"
}

// renderTaskInfo renders the detail view with markdown description.
func (m Model) renderTaskInfo(width int) string {
	task, ok := m.store.TaskByID(m.infoTaskID)
	if !ok {
		return ""
	}
	muted := lipgloss.NewStyle().Foreground(mutedColor)
	lines := []string{
		modalTitle(task.Title),
		muted.Render("id: " + task.ID),
		"",
		"Status:    " + task.Status.Label(),
		"Priority:  " + lipgloss.NewStyle().Foreground(priorityColor(task.Priority)).Render(task.Priority.Label()),
	}
	if c, ok := m.store.CategoryByID(task.CategoryID); ok {
		lines = append(lines, "Category:  "+lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render("● "+c.Name))
	}
	if task.DueDate != nil {
		due := task.DueDate.String()
		if label := task.DueLabel(domain.DateOf(m.now())); label != "" && label != task.DueDate.Format("Jan 2") {
			due += " (" + label + ")"
		}
		lines = append(lines, "Due:       "+due)
	}
	lines = append(lines, "Created:   "+task.CreatedAt.Local().Format("2006-01-02 15:04"))
	if task.CompletedAt != nil {
		lines = append(lines, "Completed: "+task.CompletedAt.Local().Format("2006-01-02 15:04"))
	}
	if desc := m.markdown.render(task.Description, width-6); desc != "" {
		lines = append(lines, "", desc)
	}
	lines = append(lines, "", muted.Render("e edit • c complete • y copy id • esc close"))
	return modalStyle(width).Render(strings.Join(lines, "\n"))
}

// renderCategoryForm renders the create-category form with color swatches.
func (m Model) renderCategoryForm(width int) string {
	swatches := make([]string, 0, len(m.palette))
	for _, hex := range m.palette {
		mark := "○"
		if hex == m.categoryForm.draft.Color {
			mark = "●"
		}
		swatches = append(swatches, lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render(mark))
	}
	lines := []string{
		modalTitle("New Category"),
		"",
		m.categoryForm.name.View(),
		"color: " + strings.Join(swatches, " ") + "  " + m.categoryForm.draft.Color,
		"",
	}
	if m.categoryForm.err != nil {
		lines = append(lines, lipgloss.NewStyle().Foreground(errorColor).Render(m.categoryForm.err.Error()))
	}
	lines = append(lines, lipgloss.NewStyle().Foreground(mutedColor).Render("↑/↓ color • enter create • esc cancel"))
	return modalStyle(width).Render(strings.Join(lines, "\n"))
}

// renderPriorityMenu renders the priority filter toggles.
func (m Model) renderPriorityMenu() string {
	active := m.store.PriorityFilter()
	lines := []string{modalTitle("Filter by priority"), ""}
	for i, p := range domain.Priorities() {
		box := "[ ]"
		for _, a := range active {
			if a == p {
				box = "[x]"
			}
		}
		cursor := "  "
		if i == m.priorityCursor {
			cursor = "› "
		}
		lines = append(lines, cursor+box+" "+lipgloss.NewStyle().Foreground(priorityColor(p)).Render(p.Label()))
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(mutedColor).Render("space toggle • c clear • esc close"))
	return modalStyle(36).Render(strings.Join(lines, "\n"))
}

// renderConfirm renders the delete confirmation.
func (m Model) renderConfirm() string {
	what := "task"
	if m.pendingConfirm.kind == confirmCategory {
		what = "category"
	}
	lines := []string{
		modalTitle("Delete " + what + "?"),
		"",
		truncate(m.pendingConfirm.label, 40),
		"",
		lipgloss.NewStyle().Foreground(mutedColor).Render("y delete • n cancel"),
	}
	return modalStyle(48).Render(strings.Join(lines, "\n"))
}

// windowBounds returns the visible [start, end) range keeping selected in view.
func windowBounds(total, selected, windowSize int) (int, int) {
	if total <= windowSize || windowSize <= 0 {
		return 0, total
	}
	selected = clamp(selected, 0, total-1)
	start := selected - windowSize/2
	start = clamp(start, 0, total-windowSize)
	return start, start + windowSize
}

func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines pads or cuts content to exactly maxLines lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		lines = append(lines, make([]string, maxLines-len(lines))...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay above base on a layered canvas.
func overlayOnContent(base, overlay string, width, height int) string {
	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	canvas.Compose(lipgloss.NewLayer(base).X(0).Y(0).Z(0))
	canvas.Compose(lipgloss.NewLayer(centered).X(0).Y(0).Z(10))
	return canvas.Render()
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	if limit == 1 {
		return string(rs[:1])
	}
	return string(rs[:limit-1]) + "…"
}
