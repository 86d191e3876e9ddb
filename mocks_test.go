package sessiongate_test

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-router"
	sessiongate "github.com/goliatone/go-sessiongate"
	"github.com/stretchr/testify/mock"
)

type fakeIdentity struct {
	id    string
	email string
	tier  sessiongate.Tier
}

func (f fakeIdentity) ID() string             { return f.id }
func (f fakeIdentity) Email() string          { return f.email }
func (f fakeIdentity) Tier() sessiongate.Tier { return f.tier }

func proIdentity(id string) fakeIdentity {
	return fakeIdentity{id: id, email: id + "@example.com", tier: sessiongate.TierPro}
}

func freeIdentity(id string) fakeIdentity {
	return fakeIdentity{id: id, email: id + "@example.com", tier: sessiongate.TierFree}
}

// fakeProvider is a scriptable IdentityProvider. The initial subscription
// callback reflects restored, matching real provider semantics.
type fakeProvider struct {
	mu            sync.Mutex
	onChange      func(sessiongate.Identity)
	restored      sessiongate.Identity
	subscribeErr  error
	mintErr       error
	mintBlocks    bool
	invalidateErr error
	mintCalls     int
	lastForce     bool
	invalidated   int
}

func (p *fakeProvider) Subscribe(onChange func(sessiongate.Identity)) (func(), error) {
	if p.subscribeErr != nil {
		return nil, p.subscribeErr
	}
	p.mu.Lock()
	p.onChange = onChange
	restored := p.restored
	p.mu.Unlock()

	onChange(restored)

	return func() {
		p.mu.Lock()
		p.onChange = nil
		p.mu.Unlock()
	}, nil
}

func (p *fakeProvider) Mint(ctx context.Context, identity sessiongate.Identity, force bool) (string, error) {
	p.mu.Lock()
	p.mintCalls++
	n := p.mintCalls
	p.lastForce = force
	mintErr := p.mintErr
	blocks := p.mintBlocks
	p.mu.Unlock()

	if blocks {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if mintErr != nil {
		return "", mintErr
	}
	return fmt.Sprintf("token-%s-%d", identity.ID(), n), nil
}

func (p *fakeProvider) Invalidate(ctx context.Context) error {
	p.mu.Lock()
	p.invalidated++
	err := p.invalidateErr
	p.mu.Unlock()
	return err
}

func (p *fakeProvider) setMintErr(err error) {
	p.mu.Lock()
	p.mintErr = err
	p.mu.Unlock()
}

// emit scripts a provider-side identity change. nil means signed out.
func (p *fakeProvider) emit(identity sessiongate.Identity) {
	p.mu.Lock()
	onChange := p.onChange
	p.mu.Unlock()
	if onChange != nil {
		onChange(identity)
	}
}

// stateRecorder collects every published state in order.
type stateRecorder struct {
	mu     sync.Mutex
	states []sessiongate.State
}

func (r *stateRecorder) handler(state sessiongate.State) {
	r.mu.Lock()
	r.states = append(r.states, state)
	r.mu.Unlock()
}

func (r *stateRecorder) statuses() []sessiongate.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sessiongate.Status, 0, len(r.states))
	for _, s := range r.states {
		out = append(out, s.Status)
	}
	return out
}

// activityRecorder collects activity events.
type activityRecorder struct {
	mu     sync.Mutex
	events []sessiongate.ActivityEvent
}

func (r *activityRecorder) Record(_ context.Context, event sessiongate.ActivityEvent) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

func (r *activityRecorder) byType(eventType sessiongate.ActivityEventType) (sessiongate.ActivityEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.EventType == eventType {
			return e, true
		}
	}
	return sessiongate.ActivityEvent{}, false
}

func (r *activityRecorder) types() []sessiongate.ActivityEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sessiongate.ActivityEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

// MockContext mocks router.Context for middleware tests.
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) QueryValues(key string) []string {
	args := m.Called(key)
	return args.Get(0).([]string)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) LocalsMerge(key any, value map[string]any) map[string]any {
	args := m.Called(key, value)
	return args.Get(0).(map[string]any)
}

func (m *MockContext) FormFile(key string) (*multipart.FileHeader, error) {
	args := m.Called(key)
	fh, _ := args.Get(0).(*multipart.FileHeader)
	return fh, args.Error(1)
}

func (m *MockContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) IP() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) SendStatus(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) SendStream(r io.Reader) error {
	args := m.Called(r)
	return args.Error(0)
}

func (m *MockContext) RouteName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) RouteParams() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}

func waitForState(t *testing.T, store *sessiongate.Store, cond func(sessiongate.State) bool) sessiongate.State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state := store.Current()
		if cond(state) {
			return state
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for state, last: %s", store.Current())
	return sessiongate.State{}
}

func waitForStatus(t *testing.T, store *sessiongate.Store, status sessiongate.Status) sessiongate.State {
	t.Helper()
	return waitForState(t, store, func(s sessiongate.State) bool {
		return s.Status == status
	})
}
