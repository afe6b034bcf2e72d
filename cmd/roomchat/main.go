// Command roomchat is a terminal client: it resolves a room code against a
// roomsync server, renders history plus live messages, and sends stdin lines.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"roomsync-service/internal/client"
	"roomsync-service/internal/logging"
	"roomsync-service/internal/models"
	"roomsync-service/internal/roomsync"
)

const defaultAvatarURL = "/avatar.png"

func main() {
	server := flag.String("server", "http://localhost:8083", "roomsync server base URL")
	code := flag.String("code", "", "room code to join")
	token := flag.String("token", "", "bearer token, empty for anonymous")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	if *code == "" {
		fmt.Fprintln(os.Stderr, "usage: roomchat -code ROOM [-server URL] [-token TOKEN]")
		os.Exit(2)
	}

	logger := logging.New(*logLevel)

	api := client.NewAPI(*server, *token, logger)
	feed := client.NewWSFeed(*server, *token, logger)

	session := roomsync.NewSession(roomsync.Deps{
		Rooms:    api,
		History:  api,
		Profiles: api,
		Feed:     feed,
		Sender:   api,
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := make(chan error, 1)
	go func() {
		runErr <- session.Run(ctx, *code)
	}()
	defer session.Close()

	go renderLoop(ctx, session)

	lines := readLines(ctx)
	for {
		select {
		case err := <-runErr:
			if err != nil {
				if errors.Is(err, roomsync.ErrRoomNotFound) {
					fmt.Fprintf(os.Stderr, "room %q not found\n", roomsync.NormalizeCode(*code))
					os.Exit(1)
				}
				fmt.Fprintf(os.Stderr, "session failed: %v\n", err)
				os.Exit(1)
			}
			return
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if err := session.Send(ctx, line); err != nil {
				// The typed content is echoed back so the user can retry it.
				fmt.Fprintf(os.Stderr, "send failed (%v), not delivered: %s\n", err, line)
			}
		}
	}
}

// renderLoop reprints the full ordered view whenever the session reports a
// change. Good enough for a terminal; the store is the single source of truth.
func renderLoop(ctx context.Context, session *roomsync.Session) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-session.Signals():
			if sig.State == roomsync.StateLive {
				if room, ok := session.Room(); ok {
					fmt.Printf("-- joined %s --\n", room.Code)
				}
			}
		case <-session.Updates():
			render(session)
		}
	}
}

func render(session *roomsync.Session) {
	fmt.Print("\033[H\033[2J")
	for _, msg := range session.Messages() {
		fmt.Printf("[%s] %s %s: %s\n",
			msg.CreatedAt.Format("15:04:05"),
			avatarFor(session, msg),
			nameFor(session, msg),
			msg.Content,
		)
	}
}

func nameFor(session *roomsync.Session, msg models.Message) string {
	if msg.AuthorID == nil {
		return "anonymous"
	}
	if p, ok := session.Profile(*msg.AuthorID); ok && p.Username != "" {
		return p.Username
	}
	id := *msg.AuthorID
	if len(id) > 8 {
		id = id[:8]
	}
	return id
}

func avatarFor(session *roomsync.Session, msg models.Message) string {
	if msg.AuthorID != nil {
		if p, ok := session.Profile(*msg.AuthorID); ok && p.AvatarURL != nil && *p.AvatarURL != "" {
			return *p.AvatarURL
		}
	}
	return defaultAvatarURL
}

// readLines feeds stdin lines into a channel so the main loop can also watch
// the session. The goroutine leaks on shutdown; the process is exiting anyway.
func readLines(ctx context.Context) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case out <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
