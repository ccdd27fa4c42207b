package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/loopshell/loopshell/internal/approval"
	"github.com/loopshell/loopshell/internal/conversation"
	"github.com/loopshell/loopshell/internal/engine"
	"github.com/loopshell/loopshell/internal/shell"
)

// tuiMessage is a rendered chat entry in the interactive UI.
type tuiMessage struct {
	// Role labels the message origin (user, assistant, system, tool).
	Role string
	// Content is the message text displayed in the chat viewport.
	Content string
}

// assistantTextMsg carries assistant text into the TUI event loop.
type assistantTextMsg struct {
	Text string
}

// actionStartedMsg reports a tool invocation beginning.
type actionStartedMsg struct {
	Name    string
	Display string
}

// actionFinishedMsg reports a tool invocation completing.
type actionFinishedMsg struct {
	Name    string
	Content string
	IsError bool
}

// turnDoneMsg signals a completed engine turn.
type turnDoneMsg struct{}

// turnErrorMsg reports a turn that aborted with an error.
type turnErrorMsg struct {
	Err error
}

// approvalPrompt is a pending approval request awaiting a keypress.
type approvalPrompt struct {
	// Request carries the action details for display.
	Request approval.Request
	// Response returns the user's decision to the engine goroutine.
	Response chan approval.Decision
}

// approvalRequestMsg delivers an approval prompt to the UI loop.
type approvalRequestMsg struct {
	Prompt *approvalPrompt
}

// tuiParams bundles the collaborators the interactive UI needs.
type tuiParams struct {
	engine     *engine.Engine
	env        *shell.Environment
	model      string
	sessionID  string
	persist    func()
	logger     *slog.Logger
	toolNames  []string
	maxActions int
}

// tuiModel drives the interactive terminal UI.
type tuiModel struct {
	params tuiParams

	// chatMessages holds display-friendly message entries.
	chatMessages []tuiMessage
	// toolLines keeps a rolling log of tool activity.
	toolLines []string
	// inputHistory stores prior user inputs for recall.
	inputHistory []string
	// historyIndex tracks the active position in inputHistory.
	historyIndex int
	// historyDraft preserves the in-progress input when browsing history.
	historyDraft string

	chatView viewport.Model
	toolView viewport.Model
	input    textarea.Model
	// markdownRenderer formats assistant output when available.
	markdownRenderer *glamour.TermRenderer

	statusText string
	// chatAutoScroll keeps the chat viewport pinned to the bottom.
	chatAutoScroll bool
	toolAutoScroll bool
	width          int
	height         int
	// activePane identifies which pane is focused.
	activePane string
	// running indicates an in-flight turn.
	running bool
	// eventCh delivers engine events into the update loop.
	eventCh chan tea.Msg
	// cancel cancels the current turn when present.
	cancel context.CancelFunc
	// pendingApproval is the active approval prompt, when any.
	pendingApproval *approvalPrompt
	// detailShown tracks whether the full request detail was expanded.
	detailShown bool
	quitting    bool
}

// runInteractiveTUI starts the full-screen terminal UI.
func runInteractiveTUI(params tuiParams) error {
	if !term.IsTerminal(int(0)) || !term.IsTerminal(int(1)) {
		return errors.New("interactive mode requires a TTY; use --print for scripted runs")
	}
	modelState := newTUIModel(params)
	program := tea.NewProgram(modelState, tea.WithAltScreen())
	_, err := program.Run()
	params.persist()
	return err
}

// newTUIModel constructs the initial TUI model state.
func newTUIModel(params tuiParams) *tuiModel {
	input := textarea.New()
	input.Placeholder = "Type a message, or /help..."
	input.Focus()
	input.CharLimit = 0
	input.Prompt = "> "
	input.SetHeight(3)
	input.SetWidth(20)

	chatView := viewport.New(20, 10)
	toolView := viewport.New(20, 10)
	toolView.SetContent("No tool activity yet.")

	var renderer *glamour.TermRenderer
	if glam, err := glamour.NewTermRenderer(glamour.WithAutoStyle()); err == nil {
		renderer = glam
	}

	modelState := &tuiModel{
		params:           params,
		chatView:         chatView,
		toolView:         toolView,
		input:            input,
		markdownRenderer: renderer,
		statusText:       "Enter: send | Alt+Enter: newline | Ctrl+P/N: history | Tab: panes | Ctrl+C: cancel | Ctrl+Q: quit",
		activePane:       "input",
		chatAutoScroll:   true,
		toolAutoScroll:   true,
	}
	modelState.historyIndex = len(modelState.inputHistory)
	modelState.bootstrapHistory()
	return modelState
}

// Init starts the blinking cursor for the input field.
func (m *tuiModel) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles UI events and engine updates.
func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.applyWindowSize(typed)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(typed)
	case assistantTextMsg:
		m.appendMessage("assistant", typed.Text)
		m.refreshChat()
		return m, m.listenEvents()
	case actionStartedMsg:
		m.toolLines = append(m.toolLines, typed.Display)
		m.trimToolLines()
		m.refreshTools()
		return m, m.listenEvents()
	case actionFinishedMsg:
		m.appendActionResult(typed)
		return m, m.listenEvents()
	case approvalRequestMsg:
		m.handleApprovalRequest(typed.Prompt)
		return m, m.listenEvents()
	case turnDoneMsg:
		m.finishTurn("")
		return m, nil
	case turnErrorMsg:
		m.finishTurn(typed.Err.Error())
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the full UI layout.
func (m *tuiModel) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Initializing..."
	}
	header := m.renderHeader()
	body := m.renderBody()
	input := m.renderInput()
	status := m.renderStatus()
	return lipgloss.JoinVertical(lipgloss.Left, header, body, input, status)
}

// handleKey routes keyboard input, the approval modal first.
func (m *tuiModel) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pendingApproval != nil {
		switch strings.ToLower(key.String()) {
		case "y":
			m.resolveApproval(approval.Decision{Approved: true})
			return m, nil
		case "a":
			m.resolveApproval(approval.Decision{Approved: true, Always: true})
			return m, nil
		case "v":
			m.showApprovalDetail()
			return m, nil
		case "n", "esc", "enter":
			m.resolveApproval(approval.Decision{Approved: false})
			return m, nil
		}
		return m, nil
	}

	switch key.String() {
	case "ctrl+c":
		if m.running {
			m.cancelTurn("Cancelled.")
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit
	case "ctrl+q":
		m.quitting = true
		return m, tea.Quit
	case "tab":
		m.cyclePane(1)
		return m, nil
	case "shift+tab":
		m.cyclePane(-1)
		return m, nil
	case "esc":
		m.setActivePane("input")
		return m, nil
	case "pgup":
		m.scrollActivePane(-10)
		return m, nil
	case "pgdown":
		m.scrollActivePane(10)
		return m, nil
	case "home":
		m.gotoActivePaneTop()
		return m, nil
	case "end":
		m.gotoActivePaneBottom()
		return m, nil
	case "ctrl+p":
		if m.activePane == "input" {
			m.cycleInputHistory(-1)
			return m, nil
		}
	case "ctrl+n":
		if m.activePane == "input" {
			m.cycleInputHistory(1)
			return m, nil
		}
	}

	if key.Type == tea.KeyEnter {
		if key.Alt {
			m.input.InsertString("\n")
			return m, nil
		}
		return m.submitInput()
	}

	if key.String() == "ctrl+j" {
		m.input.InsertString("\n")
		return m, nil
	}

	if m.activePane != "input" {
		switch key.String() {
		case "up", "left":
			m.scrollActivePane(-1)
			return m, nil
		case "down", "right":
			m.scrollActivePane(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	return m, cmd
}

// submitInput sends the current input as a new user message.
func (m *tuiModel) submitInput() (tea.Model, tea.Cmd) {
	if m.running {
		m.statusText = "Wait for the current response or cancel with Ctrl+C."
		return m, nil
	}
	value := strings.TrimSpace(m.input.Value())
	if value == "" {
		return m, nil
	}
	m.input.SetValue("")
	m.statusText = ""
	m.appendInputHistory(value)

	if strings.HasPrefix(value, "/") {
		return m.handleSlashCommand(value)
	}

	m.appendMessage("user", value)
	m.refreshChat()

	m.running = true
	m.toolLines = nil
	m.toolView.SetContent("No tool activity yet.")
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.statusText = "Thinking..."
	m.eventCh = make(chan tea.Msg, 128)
	m.configureEngine(ctx)

	cmd := m.startTurn(ctx, value)
	return m, tea.Batch(cmd, m.listenEvents())
}

// handleSlashCommand services local commands without a model call.
func (m *tuiModel) handleSlashCommand(value string) (tea.Model, tea.Cmd) {
	switch strings.ToLower(strings.Fields(value)[0]) {
	case "/quit", "/exit":
		m.quitting = true
		return m, tea.Quit
	case "/clear":
		m.params.engine.Conversation().Clear()
		m.chatMessages = nil
		m.toolLines = nil
		m.toolView.SetContent("No tool activity yet.")
		m.refreshChat()
		m.statusText = "Conversation cleared."
	case "/env":
		m.appendMessage("system", m.params.env.Summary())
		m.refreshChat()
	case "/tools":
		m.appendMessage("system", "Available tools:\n"+strings.Join(m.params.toolNames, "\n"))
		m.refreshChat()
	case "/help":
		m.appendMessage("system",
			"/clear  reset the conversation\n"+
				"/env    show the detected environment\n"+
				"/tools  list available tools\n"+
				"/quit   exit")
		m.refreshChat()
	default:
		m.statusText = "Unknown command: " + value
	}
	return m, nil
}

// appendInputHistory records an input line for history navigation.
func (m *tuiModel) appendInputHistory(value string) {
	if value == "" {
		return
	}
	m.inputHistory = append(m.inputHistory, value)
	if len(m.inputHistory) > 200 {
		m.inputHistory = m.inputHistory[len(m.inputHistory)-200:]
	}
	m.historyIndex = len(m.inputHistory)
	m.historyDraft = ""
}

// cycleInputHistory moves the input buffer through stored history entries.
func (m *tuiModel) cycleInputHistory(delta int) {
	if len(m.inputHistory) == 0 {
		return
	}
	if m.historyIndex == len(m.inputHistory) {
		m.historyDraft = m.input.Value()
	}
	next := m.historyIndex + delta
	if next < 0 {
		next = 0
	}
	if next > len(m.inputHistory) {
		next = len(m.inputHistory)
	}
	m.historyIndex = next
	if m.historyIndex == len(m.inputHistory) {
		m.input.SetValue(m.historyDraft)
		return
	}
	m.input.SetValue(m.inputHistory[m.historyIndex])
}

// tuiApprover bridges engine approval requests into the UI loop over a
// channel handshake. Approve blocks the engine goroutine, never the UI.
type tuiApprover struct {
	ctx     context.Context
	eventCh chan tea.Msg
}

func (a tuiApprover) Approve(ctx context.Context, req approval.Request) (approval.Decision, error) {
	prompt := &approvalPrompt{
		Request:  req,
		Response: make(chan approval.Decision, 1),
	}
	select {
	case <-a.ctx.Done():
		return approval.Decision{}, a.ctx.Err()
	case a.eventCh <- approvalRequestMsg{Prompt: prompt}:
	}
	select {
	case <-a.ctx.Done():
		return approval.Decision{}, a.ctx.Err()
	case decision := <-prompt.Response:
		return decision, nil
	}
}

// tuiNotifier forwards engine progress into the UI loop.
type tuiNotifier struct {
	ctx     context.Context
	eventCh chan tea.Msg
}

func (n tuiNotifier) send(msg tea.Msg) {
	select {
	case <-n.ctx.Done():
	case n.eventCh <- msg:
	}
}

func (n tuiNotifier) AssistantText(text string) {
	if text != "" {
		n.send(assistantTextMsg{Text: text})
	}
}

func (n tuiNotifier) ActionStarted(req conversation.ActionRequest, display string) {
	n.send(actionStartedMsg{Name: req.Name, Display: display})
}

func (n tuiNotifier) ActionFinished(req conversation.ActionRequest, result conversation.ActionResult) {
	n.send(actionFinishedMsg{Name: req.Name, Content: result.Content, IsError: result.IsError})
}

// configureEngine wires the approval modal and progress feed for one turn.
func (m *tuiModel) configureEngine(ctx context.Context) {
	m.params.engine.SetApprover(tuiApprover{ctx: ctx, eventCh: m.eventCh})
	m.params.engine.SetNotifier(tuiNotifier{ctx: ctx, eventCh: m.eventCh})
}

// startTurn launches the engine turn on its own goroutine.
func (m *tuiModel) startTurn(ctx context.Context, userText string) tea.Cmd {
	eng := m.params.engine
	eventCh := m.eventCh
	return func() tea.Msg {
		if err := eng.RunTurn(ctx, userText); err != nil {
			eventCh <- turnErrorMsg{Err: err}
		} else {
			eventCh <- turnDoneMsg{}
		}
		close(eventCh)
		return nil
	}
}

// listenEvents waits for the next engine event.
func (m *tuiModel) listenEvents() tea.Cmd {
	if m.eventCh == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-m.eventCh
		if !ok {
			return nil
		}
		return msg
	}
}

// finishTurn resets run state and persists the transcript.
func (m *tuiModel) finishTurn(errText string) {
	m.running = false
	m.cancel = nil
	m.pendingApproval = nil
	m.detailShown = false
	m.statusText = errText
	m.refreshChat()
	m.params.persist()
}

// cancelTurn cancels an in-flight turn and updates status.
func (m *tuiModel) cancelTurn(reason string) {
	if m.cancel != nil {
		m.cancel()
	}
	if m.pendingApproval != nil {
		m.resolveApproval(approval.Decision{Approved: false, Reason: "cancelled"})
	}
	m.statusText = reason
}

// handleApprovalRequest stores the prompt and updates UI state.
func (m *tuiModel) handleApprovalRequest(prompt *approvalPrompt) {
	if prompt == nil {
		return
	}
	m.pendingApproval = prompt
	m.detailShown = false
	m.input.Blur()

	req := prompt.Request
	line := fmt.Sprintf("approval requested: %s", req.Display)
	if req.Dangerous {
		line = fmt.Sprintf("approval requested: %s  !! %s", req.Display, req.Reason)
	}
	m.toolLines = append(m.toolLines, line)
	m.trimToolLines()
	m.refreshTools()

	m.statusText = fmt.Sprintf("Allow %s %q? [y]es / [n]o / [a]lways / [v]iew", req.Kind, req.Display)
}

// showApprovalDetail expands the full request into the tool pane.
func (m *tuiModel) showApprovalDetail() {
	if m.pendingApproval == nil || m.detailShown {
		return
	}
	m.detailShown = true
	detail := m.pendingApproval.Request.Detail
	if detail == "" {
		detail = "(no further detail)"
	}
	m.toolLines = append(m.toolLines, "--- full request ---")
	m.toolLines = append(m.toolLines, strings.Split(detail, "\n")...)
	m.toolLines = append(m.toolLines, "--------------------")
	m.trimToolLines()
	m.refreshTools()
}

// resolveApproval sends the user's decision back to the engine goroutine.
func (m *tuiModel) resolveApproval(decision approval.Decision) {
	prompt := m.pendingApproval
	m.pendingApproval = nil
	m.detailShown = false
	if prompt != nil {
		select {
		case prompt.Response <- decision:
		default:
		}
	}
	m.input.Focus()
	if decision.Approved {
		m.statusText = "Approved."
		if decision.Always {
			m.statusText = "Approved for the rest of the session."
		}
	} else {
		m.statusText = "Denied."
	}
}

// appendMessage adds a new chat message to the display list.
func (m *tuiModel) appendMessage(role string, content string) {
	m.chatMessages = append(m.chatMessages, tuiMessage{Role: role, Content: content})
}

// appendActionResult records a completed action in the tool pane.
func (m *tuiModel) appendActionResult(msg actionFinishedMsg) {
	status := "completed"
	if msg.IsError {
		status = "failed"
	}
	m.toolLines = append(m.toolLines, fmt.Sprintf("%s: %s", msg.Name, status))
	if summary := summarize(msg.Content, 160); summary != "" {
		m.toolLines = append(m.toolLines, "  "+summary)
	}
	m.trimToolLines()
	m.refreshTools()
}

func (m *tuiModel) trimToolLines() {
	if len(m.toolLines) > 200 {
		m.toolLines = m.toolLines[len(m.toolLines)-200:]
	}
}

// refreshChat rebuilds the chat viewport content.
func (m *tuiModel) refreshChat() {
	var builder strings.Builder
	for _, msg := range m.chatMessages {
		builder.WriteString(m.renderMessage(msg))
		builder.WriteString("\n\n")
	}
	m.chatView.SetContent(builder.String())
	if m.chatAutoScroll {
		m.chatView.GotoBottom()
	}
}

// refreshTools rebuilds the tool viewport content.
func (m *tuiModel) refreshTools() {
	if len(m.toolLines) == 0 {
		m.toolView.SetContent("No tool activity yet.")
		return
	}
	m.toolView.SetContent(strings.Join(m.toolLines, "\n"))
	if m.toolAutoScroll {
		m.toolView.GotoBottom()
	}
}

// bootstrapHistory seeds the chat view with resumed session messages.
func (m *tuiModel) bootstrapHistory() {
	for _, message := range m.params.engine.Conversation().Messages() {
		switch message.Role {
		case conversation.RoleSystem:
			continue
		case conversation.RoleTool:
			for _, result := range message.Results {
				m.appendMessage("tool", result.Content)
			}
		default:
			if message.Content != "" {
				m.appendMessage(string(message.Role), message.Content)
			}
		}
	}
	m.refreshChat()
}

// applyWindowSize recalculates the layout for a new window size.
func (m *tuiModel) applyWindowSize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height

	headerHeight := 1
	statusHeight := 1
	inputHeight := m.input.Height()
	bodyHeight := m.height - headerHeight - statusHeight - inputHeight
	if bodyHeight < 4 {
		bodyHeight = 4
	}

	toolWidth := maxInt(24, m.width/4)
	if toolWidth > 60 {
		toolWidth = 60
	}
	chatWidth := m.width - toolWidth - 3
	if chatWidth < 20 {
		chatWidth = 20
		toolWidth = maxInt(20, m.width-chatWidth-3)
	}

	m.chatView.Width = chatWidth - 2
	m.chatView.Height = bodyHeight - 2
	m.toolView.Width = toolWidth - 2
	m.toolView.Height = bodyHeight - 2
	m.input.SetWidth(m.width - 2)

	m.refreshChat()
	m.refreshTools()
}

// renderHeader builds the top status line.
func (m *tuiModel) renderHeader() string {
	style := lipgloss.NewStyle().Bold(true)
	header := fmt.Sprintf("loopshell | session %s | model %s | cap %d", m.params.sessionID, m.params.model, m.params.maxActions)
	if m.running {
		header = header + " | running"
	}
	return style.Render(padRight(header, m.width))
}

// renderBody composes the chat and tool panes.
func (m *tuiModel) renderBody() string {
	chat := m.renderPane("Conversation", m.chatView.View(), m.chatView.Width+2)
	toolsPane := m.renderPane("Tools", m.toolView.View(), m.toolView.Width+2)
	return lipgloss.JoinHorizontal(lipgloss.Top, chat, toolsPane)
}

// setActivePane updates focus and input state for the requested pane.
func (m *tuiModel) setActivePane(pane string) {
	switch pane {
	case "chat", "tools":
		m.activePane = pane
		m.input.Blur()
	default:
		m.activePane = "input"
		m.input.Focus()
	}
}

// cyclePane moves focus between input, chat, and tools.
func (m *tuiModel) cyclePane(delta int) {
	order := []string{"input", "chat", "tools"}
	index := 0
	for i, name := range order {
		if name == m.activePane {
			index = i
			break
		}
	}
	next := (index + delta) % len(order)
	if next < 0 {
		next += len(order)
	}
	m.setActivePane(order[next])
}

// scrollActivePane scrolls the currently focused pane.
func (m *tuiModel) scrollActivePane(delta int) {
	switch m.activePane {
	case "tools":
		m.toolAutoScroll = false
		if delta > 0 {
			m.toolView.LineDown(delta)
		} else {
			m.toolView.LineUp(-delta)
		}
	case "chat":
		m.chatAutoScroll = false
		if delta > 0 {
			m.chatView.LineDown(delta)
		} else {
			m.chatView.LineUp(-delta)
		}
	}
}

// gotoActivePaneTop moves the active pane to the top.
func (m *tuiModel) gotoActivePaneTop() {
	switch m.activePane {
	case "tools":
		m.toolView.GotoTop()
		m.toolAutoScroll = false
	case "chat":
		m.chatView.GotoTop()
		m.chatAutoScroll = false
	}
}

// gotoActivePaneBottom moves the active pane to the bottom.
func (m *tuiModel) gotoActivePaneBottom() {
	switch m.activePane {
	case "tools":
		m.toolView.GotoBottom()
		m.toolAutoScroll = true
	case "chat":
		m.chatView.GotoBottom()
		m.chatAutoScroll = true
	}
}

// renderInput returns the input box rendering.
func (m *tuiModel) renderInput() string {
	style := lipgloss.NewStyle().Border(m.border()).Padding(0, 1)
	return style.Render(m.input.View())
}

// renderStatus returns the bottom status line.
func (m *tuiModel) renderStatus() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	text := m.statusText
	if text == "" {
		text = "Ready"
	}
	parts := []string{text, fmt.Sprintf("cwd:%s", m.params.env.Cwd)}
	if m.activePane != "" {
		parts = append(parts, fmt.Sprintf("focus:%s", m.activePane))
	}
	return style.Render(padRight(strings.Join(parts, " | "), m.width))
}

// renderPane formats a bordered pane with a title.
func (m *tuiModel) renderPane(title string, content string, width int) string {
	style := lipgloss.NewStyle().Border(m.border()).Padding(0, 1)
	header := fmt.Sprintf("[%s]", title)
	pane := lipgloss.JoinVertical(lipgloss.Left, header, content)
	return style.Width(width).Render(pane)
}

// renderMessage formats a chat message for display.
func (m *tuiModel) renderMessage(message tuiMessage) string {
	label := strings.ToUpper(message.Role)
	content := message.Content
	style := lipgloss.NewStyle()
	switch message.Role {
	case "user":
		style = style.Foreground(lipgloss.Color("39")).Bold(true)
		label = "YOU"
	case "assistant":
		style = style.Foreground(lipgloss.Color("10")).Bold(true)
		label = "ASSISTANT"
		content = m.renderMarkdown(content)
	case "tool":
		style = style.Foreground(lipgloss.Color("13"))
		label = "TOOL"
	case "system":
		style = style.Foreground(lipgloss.Color("3"))
		label = "SYSTEM"
	}
	return fmt.Sprintf("%s\n%s", style.Render(label+":"), content)
}

// renderMarkdown converts markdown into terminal output when possible.
func (m *tuiModel) renderMarkdown(content string) string {
	if m.markdownRenderer == nil {
		return content
	}
	rendered, err := m.markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// border defines a simple ASCII border to avoid Unicode dependencies.
func (m *tuiModel) border() lipgloss.Border {
	return lipgloss.Border{
		Top:         "-",
		Bottom:      "-",
		Left:        "|",
		Right:       "|",
		TopLeft:     "+",
		TopRight:    "+",
		BottomLeft:  "+",
		BottomRight: "+",
	}
}

// summarize flattens text to one truncated line.
func summarize(text string, limit int) string {
	flat := strings.Join(strings.Fields(text), " ")
	if len(flat) > limit {
		flat = flat[:limit-3] + "..."
	}
	return flat
}

// padRight pads a string with spaces to the target width.
func padRight(value string, width int) string {
	runes := []rune(value)
	if len(runes) >= width {
		return value
	}
	return value + strings.Repeat(" ", width-len(runes))
}

// maxInt returns the maximum of two integers.
func maxInt(left int, right int) int {
	if left > right {
		return left
	}
	return right
}
