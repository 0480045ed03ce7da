package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/sakif/converse/internal/apperror"
	"github.com/sakif/converse/internal/auth"
	"github.com/sakif/converse/internal/model"
	"github.com/sakif/converse/internal/repository"
)

// Hand-written fakes rather than a mock framework: what each fake does is
// visible right here, and error injection is a field assignment.

type fakeUserRepo struct {
	users  map[string]*model.User
	nextID int

	createErr error
	getErr    error
	updateErr error
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("Email already in use")
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("User with given ID not found")
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("User with the given email not found")
}

func (f *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.users[user.ID]; !ok {
		return apperror.NotFound("User with given ID not found")
	}
	user.UpdatedAt = time.Now()
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) Missing(_ context.Context, ids []string) ([]string, error) {
	var missing []string
	for _, id := range ids {
		if _, ok := f.users[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (f *fakeUserRepo) List(_ context.Context, excludeID string) ([]model.User, error) {
	var out []model.User
	for _, u := range f.users {
		if u.ID != excludeID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstName < out[j].FirstName })
	return out, nil
}

func (f *fakeUserRepo) Search(_ context.Context, term, excludeID string) ([]model.User, error) {
	var out []model.User
	for _, u := range f.users {
		if u.ID == excludeID {
			continue
		}
		if strings.Contains(u.FirstName, term) ||
			strings.Contains(u.LastName, term) ||
			strings.Contains(u.Email, term) {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeChannelRepo struct {
	channels map[string]*model.Channel
	messages map[string][]model.EnrichedMessage
	nextID   int

	createErr error
}

var _ repository.ChannelRepository = (*fakeChannelRepo)(nil)

func newFakeChannelRepo() *fakeChannelRepo {
	return &fakeChannelRepo{
		channels: make(map[string]*model.Channel),
		messages: make(map[string][]model.EnrichedMessage),
	}
}

func (f *fakeChannelRepo) Create(_ context.Context, channel *model.Channel) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	channel.ID = fmt.Sprintf("channel-%d", f.nextID)
	channel.CreatedAt = time.Now()
	channel.UpdatedAt = channel.CreatedAt
	stored := *channel
	f.channels[channel.ID] = &stored
	return nil
}

func (f *fakeChannelRepo) GetByID(_ context.Context, id string) (*model.Channel, error) {
	ch, ok := f.channels[id]
	if !ok {
		return nil, apperror.NotFound("Channel not found")
	}
	copied := *ch
	return &copied, nil
}

func (f *fakeChannelRepo) ListForUser(_ context.Context, userID string) ([]model.Channel, error) {
	var out []model.Channel
	for _, ch := range f.channels {
		if ch.AdminID == userID {
			out = append(out, *ch)
			continue
		}
		for _, m := range ch.Members {
			if m == userID {
				out = append(out, *ch)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeChannelRepo) Messages(_ context.Context, channelID string) ([]model.EnrichedMessage, error) {
	return f.messages[channelID], nil
}

func (f *fakeChannelRepo) AppendMessage(_ context.Context, msg *model.Message) error {
	ch, ok := f.channels[msg.ChannelID]
	if !ok {
		return apperror.NotFound("Channel not found")
	}
	msg.CreatedAt = time.Now()
	ch.UpdatedAt = msg.CreatedAt
	f.messages[msg.ChannelID] = append(f.messages[msg.ChannelID], model.EnrichedMessage{
		ID:        fmt.Sprintf("msg-%d", len(f.messages[msg.ChannelID])+1),
		Content:   msg.Content,
		Sender:    model.Sender{ID: msg.SenderID},
		CreatedAt: msg.CreatedAt,
	})
	return nil
}

// fakeBlobStore keeps blobs in memory and records removals.
type fakeBlobStore struct {
	blobs   map[string][]byte
	nextRef int

	saveErr   error
	removeErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (f *fakeBlobStore) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return "", err
	}
	f.nextRef++
	ref := fmt.Sprintf("uploads/profiles/%d-%s", f.nextRef, filename)
	f.blobs[ref] = buf.Bytes()
	return ref, nil
}

func (f *fakeBlobStore) Remove(_ context.Context, ref string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	// Idempotent, like the real store: deleting a missing blob is a no-op.
	delete(f.blobs, ref)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestAuthService(t *testing.T, users *fakeUserRepo, blobs *fakeBlobStore) *AuthService {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", auth.DefaultTokenTTL)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	// Cost 4 is the bcrypt minimum — keeps the tests fast.
	passwords := auth.NewPasswordServiceForTest(4)
	return NewAuthService(users, tokens, passwords, blobs, testLogger())
}
