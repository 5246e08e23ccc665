package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"ecobank-loans/internal/domain/notification"

	bolt "github.com/boltdb/bolt"
)

const deadLetterBucket = "dead_letters"

// Letter is a delivery that exhausted its retries.
type Letter struct {
	MessageID   string    `json:"message_id"`
	Channel     string    `json:"channel"`
	TemplateKey string    `json:"template_key"`
	RecipientID string    `json:"recipient_id"`
	Email       string    `json:"email,omitempty"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Error       string    `json:"error"`
	FailedAt    time.Time `json:"failed_at"`
}

func (l Letter) key() []byte { return []byte(l.MessageID + "/" + l.Channel) }

// DeadLetters keeps failed deliveries in a local bolt file for manual replay.
// The file lock is held for one operation at a time, so the running server
// and the deadletters CLI can share the file.
type DeadLetters struct {
	path string
	mu   sync.Mutex
}

// deadLetterLockWait bounds how long an operation waits for the other process.
const deadLetterLockWait = 5 * time.Second

// OpenDeadLetters creates the file and its bucket when missing.
func OpenDeadLetters(path string) (*DeadLetters, error) {
	d := &DeadLetters{path: path}
	if err := d.update(func(*bolt.Bucket) error { return nil }); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DeadLetters) update(fn func(b *bolt.Bucket) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	db, err := bolt.Open(d.path, 0600, &bolt.Options{Timeout: deadLetterLockWait})
	if err != nil {
		return fmt.Errorf("open dead letters %s: %w", d.path, err)
	}
	defer db.Close()
	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(deadLetterBucket))
		if err != nil {
			return err
		}
		return fn(b)
	})
}

// view takes a shared lock: concurrent readers do not block each other.
func (d *DeadLetters) view(fn func(b *bolt.Bucket) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	db, err := bolt.Open(d.path, 0600, &bolt.Options{Timeout: deadLetterLockWait, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("open dead letters %s: %w", d.path, err)
	}
	defer db.Close()
	return db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(deadLetterBucket))
		if b == nil {
			return nil
		}
		return fn(b)
	})
}

// Put overwrites any earlier letter for the same message and channel.
func (d *DeadLetters) Put(l Letter) error {
	v, err := json.Marshal(l)
	if err != nil {
		return err
	}
	return d.update(func(b *bolt.Bucket) error { return b.Put(l.key(), v) })
}

func (d *DeadLetters) List() ([]Letter, error) {
	items := []Letter{}
	err := d.view(func(b *bolt.Bucket) error {
		return b.ForEach(func(_, v []byte) error {
			var l Letter
			if err := json.Unmarshal(v, &l); err != nil {
				return err
			}
			items = append(items, l)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes a letter once it has been replayed.
func (d *DeadLetters) Delete(messageID, channel string) error {
	return d.update(func(b *bolt.Bucket) error {
		return b.Delete(Letter{MessageID: messageID, Channel: channel}.key())
	})
}

func (l Letter) envelope() Envelope {
	return Envelope{
		ID:          l.MessageID,
		Recipient:   notification.Recipient{AccountID: l.RecipientID, Email: l.Email},
		TemplateKey: l.TemplateKey,
		Subject:     l.Subject,
		Body:        l.Body,
	}
}

// Replay redelivers every letter whose channel is in channels and deletes the
// ones that went through. Letters for unknown channels are left alone.
func Replay(ctx context.Context, d *DeadLetters, channels []Channel) (int, error) {
	letters, err := d.List()
	if err != nil {
		return 0, err
	}
	byName := make(map[string]Channel, len(channels))
	for _, ch := range channels {
		byName[ch.Name()] = ch
	}

	var (
		replayed int
		errs     []error
	)
	for _, l := range letters {
		ch, ok := byName[l.Channel]
		if !ok {
			continue
		}
		if err := ch.Deliver(ctx, l.envelope()); err != nil {
			errs = append(errs, fmt.Errorf("%s/%s: %w", l.MessageID, l.Channel, err))
			continue
		}
		if err := d.Delete(l.MessageID, l.Channel); err != nil {
			errs = append(errs, err)
			continue
		}
		replayed++
	}
	return replayed, errors.Join(errs...)
}
