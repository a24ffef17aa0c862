package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/homeservices/user-service/internal/domain/entity"
	"github.com/homeservices/user-service/internal/domain/repository/repotest"
	"github.com/homeservices/user-service/pkg/apperror"
	"github.com/homeservices/user-service/pkg/helpers"
	"github.com/homeservices/user-service/pkg/mailer"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fakeQueue struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
	err  error
}

func (q *fakeQueue) PublishJSON(_ context.Context, body any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, body.(mailer.EmailJob))
	return nil
}

type fakeIndex struct {
	docs     map[string]entity.UserView
	lastSize int
	err      error
}

func (x *fakeIndex) IndexUser(_ context.Context, v entity.UserView) error {
	if x.err != nil {
		return x.err
	}
	x.docs[v.ID] = v
	return nil
}

func (x *fakeIndex) SearchUsers(_ context.Context, q string, size int) ([]entity.UserView, error) {
	if x.err != nil {
		return nil, x.err
	}
	x.lastSize = size
	out := []entity.UserView{}
	for _, v := range x.docs {
		if v.Email == q || v.FirstName == q || v.LastName == q {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeActivity struct {
	records map[string]entity.LoginActivity
}

func (a *fakeActivity) RecordLogin(_ context.Context, la entity.LoginActivity) error {
	a.records[la.UserID] = la
	return nil
}

func (a *fakeActivity) LoginActivity(_ context.Context, userID string) (*entity.LoginActivity, error) {
	la, ok := a.records[userID]
	if !ok {
		return nil, nil
	}
	return &la, nil
}

func (a *fakeActivity) Clear(_ context.Context, userID string) error {
	delete(a.records, userID)
	return nil
}

type fakeAvatars struct {
	path        string
	contentType string
	body        []byte
	err         error
}

func (f *fakeAvatars) Upload(_ context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.path, f.contentType, f.body = objectPath, contentType, b
	return "https://storage.googleapis.com/test-bucket/" + objectPath, nil
}

type fixture struct {
	clock    *clock
	store    *repotest.Store
	jwt      *helpers.JWTManager
	svc      *Service
	auth     *Authenticator
	emails   *fakeQueue
	index    *fakeIndex
	activity *fakeActivity
	avatars  *fakeAvatars
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := &clock{t: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}

	store := repotest.New()
	store.Now = c.Now
	jwt := helpers.NewJWTManager("test-secret").WithClock(c.Now)

	svc := NewService(store, helpers.BcryptHasher{Cost: bcrypt.MinCost}, jwt, helpers.NopLogger(), "24h")
	svc.Now = c.Now
	ids := 0
	svc.NewID = func() string {
		ids++
		return fmt.Sprintf("00000000-0000-4000-8000-%012d", ids)
	}

	f := &fixture{
		clock:    c,
		store:    store,
		jwt:      jwt,
		svc:      svc,
		auth:     NewAuthenticator(store, jwt, helpers.NopLogger()),
		emails:   &fakeQueue{},
		index:    &fakeIndex{docs: map[string]entity.UserView{}},
		activity: &fakeActivity{records: map[string]entity.LoginActivity{}},
		avatars:  &fakeAvatars{},
	}
	svc.Emails = f.emails
	svc.Index = f.index
	svc.Activity = f.activity
	svc.Avatars = f.avatars
	return f
}

func strp(s string) *string { return &s }

func validRegistration(email string) RegisterInput {
	return RegisterInput{
		Email:     email,
		Password:  "s3cret-pass",
		FirstName: "Thabo",
		LastName:  "Nkosi",
		Phone:     strp("0821234567"),
	}
}

func (f *fixture) register(t *testing.T, email string) *AuthResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), validRegistration(email))
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return res
}

func mustKind(t *testing.T, err error, want apperror.Kind) *apperror.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", want)
	}
	var ae *apperror.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apperror.Error, got %T: %v", err, err)
	}
	if ae.Kind != want {
		t.Fatalf("expected kind %s, got %s (%v)", want, ae.Kind, err)
	}
	return ae
}
