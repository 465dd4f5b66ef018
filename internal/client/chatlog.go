package client

import (
	"time"

	"github.com/sirupsen/logrus"
)

type ChatLine struct {
	Time   time.Time
	Sender string
	Text   string
}

func (l ChatLine) String() string {
	if l.Sender == "" {
		return l.Text
	}
	return l.Sender + ": " + l.Text
}

// ChatLog is the user-facing message pane: server chat, connection notes
// and planner feedback. It keeps the newest max lines.
type ChatLog struct {
	max   int
	lines []ChatLine
	log   *logrus.Entry
	now   func() time.Time
}

func NewChatLog(max int, log *logrus.Entry) *ChatLog {
	if max <= 0 {
		max = 200
	}
	return &ChatLog{max: max, log: log, now: time.Now}
}

func (c *ChatLog) Add(sender, text string) {
	line := ChatLine{Time: c.now(), Sender: sender, Text: text}
	if len(c.lines) == c.max {
		copy(c.lines, c.lines[1:])
		c.lines = c.lines[:c.max-1]
	}
	c.lines = append(c.lines, line)
	if c.log != nil {
		c.log.WithField("sender", sender).Info(text)
	}
}

// Lines returns the retained lines, oldest first. The slice is shared;
// callers must not modify it.
func (c *ChatLog) Lines() []ChatLine { return c.lines }

// Tail returns at most n of the newest lines.
func (c *ChatLog) Tail(n int) []ChatLine {
	if n >= len(c.lines) {
		return c.lines
	}
	return c.lines[len(c.lines)-n:]
}
