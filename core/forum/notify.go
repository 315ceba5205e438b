package forum

import (
	"context"
	"fmt"
	"net/mail"
	"strconv"

	"github.com/trezcool/sala/core"
)

const replyNotificationTmpl = "reply_notification"

type replyNotificationData struct {
	RecipientName string
	ReplierName   string
	TopicID       int
	TopicTitle    string
	Reply         string
}

// notifyReply emails the author of parent about reply. Failures are logged only.
func (svc *Service) notifyReply(ctx context.Context, topic Topic, parent, reply Comment) {
	if parent.AuthorID == reply.AuthorID {
		return
	}
	recipient, err := svc.users.GetByID(ctx, parent.AuthorID)
	if err != nil {
		if !core.IsNotFound(err) {
			svc.logger.Error(fmt.Sprintf("reply notification: finding recipient %d: %v", parent.AuthorID, err), err)
		}
		return
	}
	if recipient.Email == "" || !recipient.IsActive {
		return
	}

	replier, err := svc.users.GetByID(ctx, reply.AuthorID)
	if err != nil && !core.IsNotFound(err) {
		svc.logger.Error(fmt.Sprintf("reply notification: finding replier %d: %v", reply.AuthorID, err), err)
		return
	}
	replierPtr := &replier
	if err != nil {
		replierPtr = nil
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: recipient.Name, Address: recipient.Email}},
		Subject:      "New reply to your comment",
		Categories:   []string{"forum", replyNotificationTmpl},
		Metadata: map[string]string{
			"topic_id":   strconv.Itoa(topic.ID),
			"comment_id": strconv.Itoa(reply.ID),
		},
		TemplateName: replyNotificationTmpl,
		TemplateData: replyNotificationData{
			RecipientName: recipient.Name,
			ReplierName:   DisplayName(reply, replierPtr, recipient.Role),
			TopicID:       topic.ID,
			TopicTitle:    topic.Title,
			Reply:         reply.Content,
		},
	})
}
