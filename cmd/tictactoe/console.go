package main

import (
	"bufio"
	"context"
	"ctchen222/tictactoe-engine/internal/events"
	"ctchen222/tictactoe-engine/internal/game"
	"ctchen222/tictactoe-engine/internal/hub"
	"ctchen222/tictactoe-engine/internal/player"
	"ctchen222/tictactoe-engine/internal/session"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// console is the terminal view of a game: it prints banners derived from
// session events and submits the moves typed by the human players.
type console struct {
	hub         *hub.Hub
	opts        session.Options
	promptDelay time.Duration
	out         io.Writer
	lines       <-chan string
}

func newConsole(h *hub.Hub, opts session.Options, promptDelay time.Duration, in io.Reader, out io.Writer) *console {
	return &console{
		hub:         h,
		opts:        opts,
		promptDelay: promptDelay,
		out:         out,
		lines:       readLines(in),
	}
}

func readLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
	}()
	return lines
}

// Run plays games until the players decline a rematch, input ends or ctx is done.
func (c *console) Run(ctx context.Context) error {
	for {
		again, err := c.playGame(ctx)
		if err != nil || !again {
			return err
		}
	}
}

func (c *console) playGame(ctx context.Context) (bool, error) {
	s, err := c.hub.CreateSession(ctx, c.opts)
	if err != nil {
		return false, err
	}
	defer func() {
		if err := c.hub.Close(s.ID()); err != nil && !errors.Is(err, hub.ErrSessionNotFound) {
			slog.WarnContext(ctx, "failed to close session", "session.id", s.ID(), "error", err)
		}
	}()

	evs, unsubscribe := s.Subscribe(ctx)
	defer unsubscribe()

	if err := s.Start(ctx); err != nil {
		return false, err
	}

	lines := c.lines
	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()

		case ev, ok := <-evs:
			if !ok {
				return false, nil
			}
			if c.render(s, ev) {
				return c.promptRematch(ctx)
			}

		case line, ok := <-lines:
			if !ok {
				if c.opts.GameType == game.ComputerVsComputer {
					lines = nil
					c.lines = nil
					continue
				}
				c.drain(s, evs)
				return false, nil
			}
			if line == "" {
				continue
			}
			m, err := parseMove(line)
			if err != nil {
				fmt.Fprintln(c.out, err)
				continue
			}
			if err := s.SubmitMove(ctx, m); err != nil {
				fmt.Fprintf(c.out, "Move rejected: %v\n", err)
			}
		}
	}
}

// drain renders the events already delivered to evs.
func (c *console) drain(s *session.Session, evs <-chan events.Event) {
	for {
		select {
		case ev, ok := <-evs:
			if !ok {
				return
			}
			c.render(s, ev)
		default:
			return
		}
	}
}

// render prints the banner of ev and reports whether the game is over.
func (c *console) render(s *session.Session, ev events.Event) bool {
	switch ev.Type {
	case events.GameStateChanged:
		p, err := events.Decode[events.GameStateChangedPayload](ev)
		if err != nil {
			slog.Warn("undecodable event", "event", ev.Type, "error", err)
			return false
		}
		switch p.State {
		case session.Won.String():
			fmt.Fprintf(c.out, "%s\n%s wins!\n", s.Snapshot().Board, p.WinnerName)
			return true
		case session.Draw.String():
			fmt.Fprintf(c.out, "%s\nIt's a draw!\n", s.Snapshot().Board)
			return true
		default:
			fmt.Fprintf(c.out, "New game: %s (%s)\n", c.opts.GameType, c.opts.Difficulty)
		}

	case events.NextPlay:
		p, err := events.Decode[events.NextPlayPayload](ev)
		if err != nil {
			slog.Warn("undecodable event", "event", ev.Type, "error", err)
			return false
		}
		fmt.Fprintf(c.out, "%s\n%s turn\n", s.Snapshot().Board, p.PlayerName)
		if p.InteractionEnabled {
			fmt.Fprint(c.out, "Enter row and column (0-2): ")
		}

	case events.ComputerThinking:
		p, err := events.Decode[events.ComputerThinkingPayload](ev)
		if err == nil {
			fmt.Fprintf(c.out, "%s is thinking...\n", playerName(p.Player))
		}

	case events.MoveApplied:
		p, err := events.Decode[events.MoveAppliedPayload](ev)
		if err == nil {
			fmt.Fprintf(c.out, "%s plays %s at (%d, %d)\n", playerName(p.Player), p.Mark, p.Row, p.Col)
		}
	}
	return false
}

func (c *console) promptRematch(ctx context.Context) (bool, error) {
	if c.lines == nil {
		return false, nil
	}

	timer := time.NewTimer(c.promptDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-timer.C:
	}

	fmt.Fprint(c.out, "Game over. Play again? [y/N]: ")
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case line, ok := <-c.lines:
		return ok && strings.EqualFold(line, "y"), nil
	}
}

func parseMove(line string) (game.Move, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return game.Move{}, fmt.Errorf("expected \"row col\", got %q", line)
	}
	row, err := strconv.Atoi(fields[0])
	if err != nil {
		return game.Move{}, fmt.Errorf("invalid row %q", fields[0])
	}
	col, err := strconv.Atoi(fields[1])
	if err != nil {
		return game.Move{}, fmt.Errorf("invalid column %q", fields[1])
	}
	return game.Move{Row: row, Col: col}, nil
}

func playerName(s string) string {
	for _, p := range player.All {
		if p.String() == s {
			return p.Name()
		}
	}
	return s
}
