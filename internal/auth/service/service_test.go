package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"journeyon_backend/internal/auth/repository"
	"journeyon_backend/internal/events"
	"journeyon_backend/platform/apperr"
	"journeyon_backend/platform/logger"
)

type fakeUserRepo struct {
	nextID int64
	users  map[int64]repository.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: map[int64]repository.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, username, email, passwordHash string) (repository.User, error) {
	for _, u := range r.users {
		if u.Username == username || u.Email == email {
			return repository.User{}, apperr.Conflict("username_or_email_taken")
		}
	}
	user := repository.User{
		ID:           r.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	r.users[user.ID] = user
	r.nextID++
	return user, nil
}

func (r *fakeUserRepo) GetByLogin(_ context.Context, login string) (repository.User, error) {
	for _, u := range r.users {
		if u.Username == login || u.Email == login {
			return u, nil
		}
	}
	return repository.User{}, apperr.NotFound("user_not_found")
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (repository.User, error) {
	u, ok := r.users[id]
	if !ok {
		return repository.User{}, apperr.NotFound("user_not_found")
	}
	return u, nil
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

type testAuthConfig struct{}

func (testAuthConfig) GetJWTAccessSecret() string       { return "test-secret" }
func (testAuthConfig) GetAccessTokenTTL() time.Duration { return time.Hour }

func newTestService() (*Service, *fakeUserRepo, *recordingBus) {
	repo := newFakeUserRepo()
	bus := &recordingBus{}
	return New(repo, testAuthConfig{}, bus, logger.New("test")), repo, bus
}

func TestRegisterHashesPasswordAndPublishes(t *testing.T) {
	svc, repo, bus := newTestService()

	user, err := svc.Register(context.Background(), "traveler", "t@example.com", "correct horse")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if stored := repo.users[user.ID]; stored.PasswordHash == "correct horse" || stored.PasswordHash == "" {
		t.Fatal("password must be stored as a bcrypt hash")
	}
	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
	if bus.published[0].EventName() != "auth.user.registered" {
		t.Fatalf("event = %s", bus.published[0].EventName())
	}
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.Register(context.Background(), "traveler", "t@example.com", "correct horse"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(context.Background(), "traveler", "other@example.com", "correct horse")
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("kind = %v, want conflict", apperr.GetKind(err))
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc, _, _ := newTestService()

	user, err := svc.Register(context.Background(), "traveler", "t@example.com", "correct horse")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, login := range []string{"traveler", "t@example.com"} {
		token, got, err := svc.Login(context.Background(), login, "correct horse")
		if err != nil {
			t.Fatalf("login with %q: %v", login, err)
		}
		if got.ID != user.ID {
			t.Fatalf("logged in user = %d, want %d", got.ID, user.ID)
		}

		parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
			return []byte("test-secret"), nil
		})
		if err != nil || !parsed.Valid {
			t.Fatalf("token must verify against the signing secret: %v", err)
		}
		claims := parsed.Claims.(jwt.MapClaims)
		if claims["sub"] != strconv.FormatInt(user.ID, 10) {
			t.Fatalf("sub = %v, want %d", claims["sub"], user.ID)
		}
		if claims["type"] != "access" {
			t.Fatalf("type = %v, want access", claims["type"])
		}
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.Register(context.Background(), "traveler", "t@example.com", "correct horse"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "traveler", "wrong"); apperr.GetKind(err) != apperr.KindUnauthorized {
		t.Fatalf("wrong password kind = %v, want unauthorized", apperr.GetKind(err))
	}
	if _, _, err := svc.Login(context.Background(), "nobody", "correct horse"); apperr.GetKind(err) != apperr.KindUnauthorized {
		t.Fatalf("unknown account kind = %v, want unauthorized", apperr.GetKind(err))
	}
}
