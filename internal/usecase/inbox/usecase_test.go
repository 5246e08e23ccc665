package inbox

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ecobank-loans/internal/domain/account"
	"ecobank-loans/internal/domain/message"
	"ecobank-loans/internal/domain/notification"
	"ecobank-loans/internal/testutil/accountmock"
	"ecobank-loans/internal/testutil/inboxmock"
	"ecobank-loans/internal/testutil/notifymock"
)

const (
	clientID  = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	otherID   = "dddddddddddddddddddddddddddddddd"
	managerID = "cccccccccccccccccccccccccccccccc"
)

func accounts() *accountmock.Repo {
	known := map[string]*account.Account{
		clientID:  {AccountID: clientID, Username: "jean", Email: "jean@example.com"},
		otherID:   {AccountID: otherID, Username: "awa", Email: "awa@example.com"},
		managerID: {AccountID: managerID, Username: "manager", Email: "manager@example.com"},
	}
	return &accountmock.Repo{
		GetByAccountIDFn: func(_ context.Context, id string) (*account.Account, error) {
			if a, ok := known[id]; ok {
				return a, nil
			}
			return nil, account.ErrNotFound
		},
	}
}

func newUsecase(msgs *inboxmock.Messages, notes *notifymock.Recorder) *Usecase {
	return NewUsecase(msgs, &inboxmock.Notifications{}, accounts(), managerID, WithNotifier(notes))
}

func TestSendMessage_ClientToManager(t *testing.T) {
	var stored []*message.Message
	msgs := &inboxmock.Messages{CreateFn: func(_ context.Context, m *message.Message) error {
		stored = append(stored, m)
		return nil
	}}
	notes := &notifymock.Recorder{}
	uc := newUsecase(msgs, notes)

	m, err := uc.SendMessage(context.Background(), SendInput{SenderID: clientID, Subject: " Question ", Content: "When?"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if m.RecipientID != managerID || m.Subject != "Question" || len(m.MessageID) != 32 {
		t.Fatalf("unexpected message: %+v", m)
	}
	if len(stored) != 1 {
		t.Fatalf("want 1 stored message, got %d", len(stored))
	}
	if len(notes.Sent()) != 0 {
		t.Fatal("messages to the manager are not notified")
	}
}

func TestSendMessage_ManagerToClientNotifies(t *testing.T) {
	notes := &notifymock.Recorder{}
	uc := newUsecase(&inboxmock.Messages{}, notes)

	_, err := uc.SendMessage(context.Background(), SendInput{SenderID: managerID, RecipientID: clientID, Subject: "Docs", Content: "Please upload."})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	sent := notes.Sent()
	if len(sent) != 1 || sent[0].TemplateKey != notification.TemplateNewMessage {
		t.Fatalf("want one new_message, got %v", notes.Keys())
	}
	if sent[0].Recipient.AccountID != clientID || sent[0].Data["Subject"] != "Docs" {
		t.Fatalf("unexpected outbound: %+v", sent[0])
	}
}

func TestSendMessage_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		in      SendInput
		wantErr error
	}{
		{"empty subject", SendInput{SenderID: clientID, Subject: " ", Content: "x"}, message.ErrInvalid},
		{"empty content", SendInput{SenderID: clientID, Subject: "x"}, message.ErrInvalid},
		{"long subject", SendInput{SenderID: clientID, Subject: strings.Repeat("s", maxSubject+1), Content: "x"}, message.ErrInvalid},
		{"client to client", SendInput{SenderID: clientID, RecipientID: otherID, Subject: "x", Content: "x"}, account.ErrForbidden},
		{"manager without recipient", SendInput{SenderID: managerID, Subject: "x", Content: "x"}, message.ErrInvalid},
		{"self", SendInput{SenderID: managerID, RecipientID: managerID, Subject: "x", Content: "x"}, message.ErrInvalid},
		{"unknown recipient", SendInput{SenderID: managerID, RecipientID: "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee", Subject: "x", Content: "x"}, account.ErrNotFound},
		{"unknown sender", SendInput{SenderID: "ffffffffffffffffffffffffffffffff", Subject: "x", Content: "x"}, account.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := &inboxmock.Messages{CreateFn: func(context.Context, *message.Message) error {
				t.Fatal("nothing must be stored")
				return nil
			}}
			_, err := newUsecase(msgs, &notifymock.Recorder{}).SendMessage(context.Background(), tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("want %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestInbox_ReadSideIsRecipientScoped(t *testing.T) {
	var gotAccount, gotID string
	notes := &inboxmock.Notifications{
		MarkReadFn: func(_ context.Context, recipientID, notificationID string) error {
			gotAccount, gotID = recipientID, notificationID
			return nil
		},
		ListByRecipientFn: func(_ context.Context, recipientID string, limit int) ([]notification.Notification, error) {
			return []notification.Notification{{RecipientID: recipientID}}, nil
		},
	}
	uc := NewUsecase(&inboxmock.Messages{}, notes, accounts(), managerID)

	if err := uc.MarkNotificationRead(context.Background(), clientID, "n1"); err != nil {
		t.Fatal(err)
	}
	if gotAccount != clientID || gotID != "n1" {
		t.Fatalf("got (%s, %s)", gotAccount, gotID)
	}
	list, err := uc.ListNotifications(context.Background(), clientID, 10)
	if err != nil || len(list) != 1 || list[0].RecipientID != clientID {
		t.Fatalf("list=%v err=%v", list, err)
	}
	if err := uc.MarkMessageRead(context.Background(), clientID, "m1"); !errors.Is(err, message.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
