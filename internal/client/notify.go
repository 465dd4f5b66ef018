package client

import "github.com/sirupsen/logrus"

type NoticeKind int

const (
	NoticeLucky NoticeKind = iota
	NoticeDamage
	NoticeChat
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeLucky:
		return "lucky"
	case NoticeDamage:
		return "damage"
	default:
		return "chat"
	}
}

// Notifier draws the user's attention while the client is unfocused.
type Notifier interface {
	Notify(kind NoticeKind, text string)
}

type LogNotifier struct {
	Log *logrus.Entry
}

func (n LogNotifier) Notify(kind NoticeKind, text string) {
	if n.Log == nil {
		return
	}
	n.Log.WithField("notice", kind.String()).Warn(text)
}

// Notifiers fans a notice out to each member.
type Notifiers []Notifier

func (ns Notifiers) Notify(kind NoticeKind, text string) {
	for _, n := range ns {
		if n != nil {
			n.Notify(kind, text)
		}
	}
}
