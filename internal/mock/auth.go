package mock

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prismeai/prisme-cli/internal/model"
	"github.com/prismeai/prisme-cli/internal/state"
)

const sessionTTL = 30 * 24 * time.Hour

// sessionBody is the sign-in response: the user plus its bearer token.
type sessionBody struct {
	model.User
	Token   string `json:"token"`
	Expires string `json:"expires"`
}

func (b *Backend) openSession(u *state.User) sessionBody {
	token := uuid.NewString()
	expires := b.now().Add(sessionTTL)
	b.st.Sessions[token] = &state.Session{UserID: u.ID, Expires: expires}
	return sessionBody{User: u.User, Token: token, Expires: expires.Format(time.RFC3339)}
}

// UserForToken returns the user behind a live session.
func (b *Backend) UserForToken(token string) (*model.User, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sess := b.st.Sessions[token]
	if sess == nil || b.now().After(sess.Expires) {
		return nil, false
	}
	u := b.st.Users[sess.UserID]
	if u == nil {
		return nil, false
	}
	out := u.User
	return &out, true
}

func (b *Backend) userByEmail(email string) *state.User {
	for _, u := range b.st.Users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func (b *Backend) Login(email, password string) (sessionBody, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.userByEmail(strings.TrimSpace(email))
	if u == nil || u.Anonymous || u.Password != password {
		return sessionBody{}, unauthorized("invalid email or password")
	}
	s := b.openSession(u)
	return s, b.persist()
}

func (b *Backend) AnonymousLogin() (sessionBody, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := &state.User{User: model.User{ID: uuid.NewString()}, Anonymous: true}
	b.st.Users[u.ID] = u
	s := b.openSession(u)
	return s, b.persist()
}

type signupBody struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Language  string `json:"language"`
}

func (b *Backend) Signup(req signupBody) (sessionBody, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return sessionBody{}, badRequest("a valid email is required")
	}
	if req.Password == "" {
		return sessionBody{}, badRequest("password is required")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.userByEmail(email) != nil {
		return sessionBody{}, conflict("email already used")
	}
	lang := req.Language
	if lang == "" {
		lang = "en"
	}
	u := &state.User{
		User: model.User{
			ID:        uuid.NewString(),
			Email:     email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Language:  lang,
		},
		Password: req.Password,
	}
	b.st.Users[u.ID] = u
	s := b.openSession(u)
	return s, b.persist()
}

func (b *Backend) Logout(token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.st.Sessions[token]; !ok {
		return nil
	}
	delete(b.st.Sessions, token)
	return b.persist()
}
