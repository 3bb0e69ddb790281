// Package notify turns account and task events into emails and realtime
// pushes. Every notification runs as a dispatch job, so callers never wait
// on SMTP or Pusher and never see their errors.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/tasksync/tasksync-api/internal/domain"
	"github.com/tasksync/tasksync-api/internal/platform/mailer"
)

// Email subjects.
const (
	SubjectAccountCreated = "Account created"
	SubjectLogin          = "Login Notification"
)

// Realtime event names.
const (
	EventTaskCreated  = "task-created"
	EventTaskAssigned = "task-assigned"
)

// Mailer delivers one email.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Publisher pushes an event to one user's channel.
type Publisher interface {
	Publish(ctx context.Context, recipientID, event string, payload any) error
}

// Runner executes fn in the background under name.
type Runner interface {
	Go(name string, fn func(ctx context.Context) error)
}

// TaskEvent is the payload pushed to an assignee.
type TaskEvent struct {
	Message string       `json:"message"`
	Task    *domain.Task `json:"task"`
}

// Notifier sends account emails and task pushes. A nil Mailer or Publisher
// disables that channel.
type Notifier struct {
	mailer      Mailer
	publisher   Publisher
	runner      Runner
	frontendURL string
	now         func() time.Time
	logger      *slog.Logger
}

// New creates a Notifier.
func New(m Mailer, p Publisher, runner Runner, frontendURL string, logger *slog.Logger) *Notifier {
	if runner == nil {
		panic("runner cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		mailer:      m,
		publisher:   p,
		runner:      runner,
		frontendURL: frontendURL,
		now:         time.Now,
		logger:      logger.With(slog.String("component", "notifier")),
	}
}

// AccountCreated emails a welcome message to a new user.
func (n *Notifier) AccountCreated(user *domain.User) {
	n.sendEmail("mail.account_created", accountCreatedTemplate, user.Email, emailData{
		Heading:   "Account Notification",
		Username:  user.Username,
		Link:      n.frontendURL,
		LinkLabel: "Go to Login",
	})
}

// LoginSucceeded emails a login notice to user.
func (n *Notifier) LoginSucceeded(user *domain.User) {
	n.sendEmail("mail.login", loginTemplate, user.Email, emailData{
		Heading:   "Login Notification",
		Username:  user.Username,
		Link:      n.frontendURL,
		LinkLabel: "Go to Dashboard",
		When:      n.now().UTC().Format(time.RFC1123),
	})
}

// TaskCreated pushes a task-created event to the new task's assignee.
func (n *Notifier) TaskCreated(task *domain.Task) {
	n.pushTask(EventTaskCreated, task)
}

// TaskReassigned pushes a task-assigned event to the task's new assignee.
func (n *Notifier) TaskReassigned(task *domain.Task) {
	n.pushTask(EventTaskAssigned, task)
}

// pushTask sends event to the task's assignee. Unassigned tasks are ignored.
func (n *Notifier) pushTask(event string, task *domain.Task) {
	if n.publisher == nil || task.AssignedTo == nil {
		return
	}

	recipient := *task.AssignedTo
	payload := TaskEvent{Message: AssignmentMessage(task.Title), Task: cloneTask(task)}
	n.runner.Go("push."+event, func(ctx context.Context) error {
		return n.publisher.Publish(ctx, recipient.String(), event, payload)
	})
}

// AssignmentMessage is the human-readable text of an assignment push.
func AssignmentMessage(title string) string {
	return "New task assigned - " + title
}

func (n *Notifier) sendEmail(job string, tmpl emailTemplate, to string, data emailData) {
	if n.mailer == nil {
		return
	}

	html, text, err := tmpl.render(data)
	if err != nil {
		n.logger.Error("failed to render email", slog.String("job", job), slog.String("error", err.Error()))
		return
	}

	msg := mailer.Message{To: to, Subject: tmpl.subject, HTML: html, Text: text}
	n.runner.Go(job, func(ctx context.Context) error {
		return n.mailer.Send(ctx, msg)
	})
}

// cloneTask copies task so later mutations by the caller do not race with
// the background job.
func cloneTask(task *domain.Task) *domain.Task {
	c := *task
	if task.DueDate != nil {
		d := *task.DueDate
		c.DueDate = &d
	}
	if task.AssignedTo != nil {
		a := *task.AssignedTo
		c.AssignedTo = &a
	}
	return &c
}
