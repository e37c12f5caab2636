package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	goTeam "github.com/MrEthical07/goTeam"
	"github.com/MrEthical07/goTeam/model"
)

var errNotSignedIn = errors.New("not signed in, run: teamctl login <login>")

var commandHelp = [][2]string{
	{"login <login>", "sign in and store the token"},
	{"whoami", "show the signed-in user and token expiry"},
	{"tasks", "list your tasks (--limit, --offset)"},
	{"statuses", "list task statuses"},
	{"status <task-id> <status-id>", "move a task to another status"},
	{"chats", "list your chats"},
	{"messages <chat-id>", "show recent messages, or a history page with --offset"},
	{"send <chat-id> <text>", "post a message"},
	{"users <query>", "search users"},
	{"logout", "sign out and forget the token"},
}

type command struct {
	client   *goTeam.Client
	stdin    io.Reader
	out      io.Writer
	password string
	limit    int
	offset   int
}

func (c *command) dispatch(ctx context.Context, name string, args []string) error {
	if name != "login" {
		if err := c.client.Init(ctx); err != nil {
			return err
		}
	}

	switch name {
	case "login":
		if len(args) != 1 {
			return fmt.Errorf("%w: login <login>", errUsage)
		}
		return c.login(ctx, args[0])
	case "whoami":
		return c.whoami()
	case "tasks":
		return c.tasks(ctx)
	case "statuses":
		return c.statuses(ctx)
	case "status":
		if len(args) != 2 {
			return fmt.Errorf("%w: status <task-id> <status-id>", errUsage)
		}
		return c.moveTask(ctx, args[0], args[1])
	case "chats":
		return c.chats(ctx)
	case "messages":
		if len(args) != 1 {
			return fmt.Errorf("%w: messages <chat-id>", errUsage)
		}
		return c.messages(ctx, args[0])
	case "send":
		if len(args) < 2 {
			return fmt.Errorf("%w: send <chat-id> <text>", errUsage)
		}
		return c.send(ctx, args[0], strings.Join(args[1:], " "))
	case "users":
		if len(args) != 1 {
			return fmt.Errorf("%w: users <query>", errUsage)
		}
		return c.users(ctx, args[0])
	case "logout":
		return c.client.Logout(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
}

func (c *command) readPassword() (string, error) {
	if c.password != "" {
		return c.password, nil
	}
	if p := os.Getenv("TEAM_PASSWORD"); p != "" {
		return p, nil
	}
	line, err := bufio.NewReader(c.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password")
	}
	return line, nil
}

func (c *command) login(ctx context.Context, login string) error {
	password, err := c.readPassword()
	if err != nil {
		return err
	}
	user, err := c.client.Login(ctx, login, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "signed in as %s (%s)\n", user.Username, user.ID)
	return nil
}

func (c *command) whoami() error {
	store := c.client.Session()
	user := store.User()
	if !store.IsAuthenticated() || user == nil {
		return errNotSignedIn
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "user\t%s\n", user.Username)
	fmt.Fprintf(w, "id\t%s\n", user.ID)
	fmt.Fprintf(w, "email\t%s\n", user.Email)
	if user.Role != nil {
		fmt.Fprintf(w, "role\t%s\n", user.Role.Name)
	}
	fmt.Fprintf(w, "admin\t%t\n", store.IsAdmin())
	if at, ok := c.client.TokenExpiresAt(); ok {
		fmt.Fprintf(w, "token expires\t%s (in %s)\n", at.Format(time.RFC3339), c.client.TokenTTL(time.Now()).Round(time.Second))
	}
	return w.Flush()
}

func (c *command) tasks(ctx context.Context) error {
	if !c.client.Session().IsAuthenticated() {
		return errNotSignedIn
	}
	tasks, err := c.client.UserTasks(ctx, goTeam.TaskListParams{Limit: c.limit, Offset: c.offset})
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTITLE")
	for _, t := range tasks {
		fmt.Fprintf(w, "%d\t%s\t%s\n", t.ID, t.Status.Name, t.Title)
	}
	return w.Flush()
}

func (c *command) statuses(ctx context.Context) error {
	statuses, err := c.client.TaskStatuses(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, s := range statuses {
		fmt.Fprintf(w, "%d\t%s\n", s.ID, s.Name)
	}
	return w.Flush()
}

func (c *command) moveTask(ctx context.Context, taskArg, statusArg string) error {
	taskID, err := strconv.ParseInt(taskArg, 10, 64)
	if err != nil {
		return fmt.Errorf("task id: %w", err)
	}
	statusID, err := strconv.ParseInt(statusArg, 10, 64)
	if err != nil {
		return fmt.Errorf("status id: %w", err)
	}
	if err := c.client.UpdateTaskStatus(ctx, taskID, statusID); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "task %d moved to status %d\n", taskID, statusID)
	return nil
}

func (c *command) chats(ctx context.Context) error {
	chats, err := c.client.UserChats(ctx)
	if err != nil {
		if errors.Is(err, goTeam.ErrNotAuthenticated) {
			return errNotSignedIn
		}
		return err
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tGROUP")
	for _, ch := range chats {
		fmt.Fprintf(w, "%s\t%s\t%t\n", ch.ID, ch.Name, ch.IsGroup)
	}
	return w.Flush()
}

func (c *command) messages(ctx context.Context, chatID string) error {
	var msgs []model.Message
	if c.offset > 0 {
		page, err := c.client.LoadMessagePage(ctx, chatID, c.offset)
		if err != nil {
			return err
		}
		msgs = page.Messages
	} else {
		var err error
		if msgs, err = c.client.ChatMessages(ctx, chatID, 0); err != nil {
			return err
		}
	}
	for _, m := range msgs {
		sender := "system"
		if m.SenderID != nil {
			sender = *m.SenderID
		}
		fmt.Fprintf(c.out, "[%s] %s: %s\n", m.CreatedAt, sender, m.Content)
	}
	return nil
}

func (c *command) send(ctx context.Context, chatID, text string) error {
	msg, err := c.client.SendMessage(ctx, chatID, text, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "sent %s\n", msg.ID)
	return nil
}

func (c *command) users(ctx context.Context, query string) error {
	users, err := c.client.SearchUsers(ctx, query)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Username, u.Email)
	}
	return w.Flush()
}
