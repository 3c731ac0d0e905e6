package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/algomentor/dsa-tutor/backend/internal/model/chat"
	chatservice "github.com/algomentor/dsa-tutor/backend/internal/service/chat"
)

var (
	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	tutorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	noticeTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("196"))

	rateNoticeTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("214"))
)

const helpText = `Commands:
  /problem <url>  set the LeetCode problem link (no url clears it)
  /reset          start a new chat
  /history        show recent messages
  /help           show this help
  /quit           exit`

// session drives one Store from line-based terminal input.
type session struct {
	store    *chatservice.Store
	out      io.Writer
	renderer *glamour.TermRenderer
	history  int
}

func newSession(turner chatservice.Turner, greeting chat.Message, out io.Writer, renderer *glamour.TermRenderer, history int, opts ...chatservice.Option) *session {
	s := &session{
		out:      out,
		renderer: renderer,
		history:  history,
	}
	opts = append(opts, chatservice.WithOnError(s.printNotice))
	s.store = chatservice.NewStore(turner, greeting, opts...)
	return s
}

func (s *session) run(ctx context.Context, in io.Reader) error {
	s.printAssistant(s.store.Snapshot().History[0].Content)
	fmt.Fprintln(s.out, hintStyle.Render("Type /help for commands."))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(s.out, promptStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		if quit := s.handleLine(ctx, scanner.Text()); quit {
			return nil
		}
	}
}

// handleLine processes one input line and reports whether the user asked to quit.
func (s *session) handleLine(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "/") {
		return s.handleCommand(trimmed)
	}

	s.store.SetInput(line)
	// Failed turns are reported by the error hook.
	if err := s.store.Submit(ctx); err == nil {
		history := s.store.Snapshot().History
		s.printAssistant(history[len(history)-1].Content)
	}
	return false
}

func (s *session) handleCommand(line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return true
	case "/reset", "/new":
		s.store.Reset()
		s.store.SetContext("")
		s.printAssistant(s.store.Snapshot().History[0].Content)
	case "/problem":
		if arg == "" {
			s.store.SetContext("")
			fmt.Fprintln(s.out, hintStyle.Render("Problem link cleared."))
			return false
		}
		if !chat.ValidProblemURL(arg) {
			s.printNotice(chatservice.Notice{
				Category:    chatservice.NoticeGeneric,
				Title:       "Invalid URL",
				Description: "Please enter a valid LeetCode problem URL (e.g., https://leetcode.com/problems/two-sum/)",
			})
			return false
		}
		s.store.SetContext(arg)
		fmt.Fprintln(s.out, hintStyle.Render("Problem set: "+arg))
	case "/history":
		for _, m := range s.store.Visible(s.history) {
			if m.Role == chat.RoleUser {
				fmt.Fprintln(s.out, promptStyle.Render("you> ")+m.Content)
				continue
			}
			s.printAssistant(m.Content)
		}
	case "/help":
		fmt.Fprintln(s.out, hintStyle.Render(helpText))
	default:
		fmt.Fprintln(s.out, hintStyle.Render("Unknown command "+name+". Type /help for commands."))
	}
	return false
}

func (s *session) printAssistant(content string) {
	fmt.Fprintln(s.out, tutorStyle.Render("tutor>"))
	if s.renderer != nil {
		if rendered, err := s.renderer.Render(content); err == nil {
			fmt.Fprint(s.out, rendered)
			return
		}
	}
	fmt.Fprintln(s.out, content)
}

func (s *session) printNotice(n chatservice.Notice) {
	title := noticeTitleStyle
	if n.Category == chatservice.NoticeRateLimited {
		title = rateNoticeTitleStyle
	}
	fmt.Fprintln(s.out, title.Render(n.Title)+" "+n.Description)
}
