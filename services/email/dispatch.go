package emailsvc

import (
	"fmt"

	"github.com/trezcool/shule/core"
)

// dispatcher renders messages and hands them to send, one goroutine per message unless sync.
// Failures are logged and dropped.
type dispatcher struct {
	logger core.Logger
	sync   bool
	send   func(msg core.EmailMessage) error
}

func (d dispatcher) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if d.sync {
			d.dispatch(msg)
		} else {
			go d.dispatch(msg)
		}
	}
}

func (d dispatcher) dispatch(msg *core.EmailMessage) {
	if err := msg.Render(); err != nil {
		d.logger.Error(fmt.Sprintf("rendering email %s: %v", msg.ID, err), err)
		return
	}
	if !(msg.HasRecipients() && msg.HasContent()) {
		d.logger.Warn(fmt.Sprintf("email %s dropped: no recipient or content", msg.ID))
		return
	}
	if err := d.send(*msg); err != nil {
		d.logger.Error(fmt.Sprintf("sending email %s: %v", msg.ID, err), err)
	}
}
