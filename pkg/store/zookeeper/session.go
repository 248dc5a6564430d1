package zookeeper

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/foomo/zkdump/pkg/store"
	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const eventBufferSize = 32

var _ store.Session = (*Session)(nil)

type (
	// conn is the part of *zk.Conn a session uses
	conn interface {
		Children(path string) ([]string, *zk.Stat, error)
		Get(path string) ([]byte, *zk.Stat, error)
		Exists(path string) (bool, *zk.Stat, error)
		Create(path string, data []byte, flags int32, acl []zk.ACL) (string, error)
		Set(path string, data []byte, version int32) (*zk.Stat, error)
		Close()
	}
	Session struct {
		l              *zap.Logger
		servers        []string
		conn           conn
		sessionTimeout time.Duration
		connectTimeout time.Duration
		events         chan store.StateEvent
		connected      chan struct{}
		lost           chan struct{}
		lostErr        error
		quit           chan struct{}
		done           chan struct{}
		closeOnce      sync.Once
		stateOnce      sync.Once
	}
	Option func(*Session)
)

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithSessionTimeout(v time.Duration) Option {
	return func(o *Session) {
		o.sessionTimeout = v
	}
}

func WithConnectTimeout(v time.Duration) Option {
	return func(o *Session) {
		o.connectTimeout = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// Connect dials the given servers. The returned session is not connected yet, use AwaitConnected.
func Connect(l *zap.Logger, servers []string, opts ...Option) (*Session, error) {
	inst := &Session{
		l:              l.Named("zookeeper"),
		servers:        servers,
		sessionTimeout: 10 * time.Second,
		connectTimeout: 15 * time.Second,
		events:         make(chan store.StateEvent, eventBufferSize),
		connected:      make(chan struct{}),
		lost:           make(chan struct{}),
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
	}

	for _, opt := range opts {
		opt(inst)
	}

	zkConn, zkEvents, err := zk.Connect(servers, inst.sessionTimeout, zk.WithLogger(&logger{l: inst.l.Sugar()}))
	if err != nil {
		return nil, &store.ConnectionError{Servers: servers, Err: err}
	}
	inst.conn = zkConn

	go inst.forward(zkEvents)

	return inst, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (s *Session) AwaitConnected(ctx context.Context) error {
	timer := time.NewTimer(s.connectTimeout)
	defer timer.Stop()
	select {
	case <-s.connected:
		return nil
	case <-s.lost:
		return &store.ConnectionError{Servers: s.servers, Err: s.lostErr}
	case <-timer.C:
		return &store.ConnectionError{Servers: s.servers, Err: errors.Errorf("not connected after %s", s.connectTimeout)}
	case <-ctx.Done():
		return &store.ConnectionError{Servers: s.servers, Err: ctx.Err()}
	}
}

func (s *Session) Events() <-chan store.StateEvent {
	return s.events
}

func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.quit)
		s.conn.Close()
		<-s.done
	})
	return nil
}

func (s *Session) Children(path string) ([]string, error) {
	children, _, err := s.conn.Children(listPath(path))
	if err != nil {
		return nil, s.wrap("children", path, err)
	}
	return children, nil
}

func (s *Session) Read(path string) ([]byte, int, error) {
	data, stat, err := s.conn.Get(path)
	if err != nil {
		return nil, 0, s.wrap("read", path, err)
	}
	return data, int(stat.NumChildren), nil
}

func (s *Session) Exists(path string) (bool, error) {
	ok, _, err := s.conn.Exists(path)
	if err != nil {
		return false, s.wrap("exists", path, err)
	}
	return ok, nil
}

// Create creates path, materializing every missing parent with a nil payload.
func (s *Session) Create(path string, value []byte) error {
	acl := zk.WorldACL(zk.PermAll)
	for _, parent := range parents(path) {
		if _, err := s.conn.Create(parent, nil, 0, acl); err != nil && !errors.Is(err, zk.ErrNodeExists) {
			return s.wrap("create", parent, err)
		}
	}
	if _, err := s.conn.Create(path, value, 0, acl); err != nil {
		return s.wrap("create", path, err)
	}
	return nil
}

func (s *Session) Write(path string, value []byte) error {
	if _, err := s.conn.Set(path, value, -1); err != nil {
		return s.wrap("write", path, err)
	}
	return nil
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

// forward translates zk session events into store events until the session is closed.
func (s *Session) forward(zkEvents <-chan zk.Event) {
	defer close(s.done)
	defer close(s.events)
	for {
		select {
		case <-s.quit:
			return
		case e, ok := <-zkEvents:
			if !ok {
				return
			}
			if e.Type != zk.EventSession {
				continue
			}
			state := translateState(e.State)
			switch {
			case state == store.StateConnected:
				s.stateOnce.Do(func() { close(s.connected) })
			case e.State == zk.StateExpired || e.State == zk.StateAuthFailed:
				s.markLost(errors.Errorf("session %s", e.State))
			}
			if state == store.StateUnknown {
				continue
			}
			select {
			case s.events <- store.StateEvent{State: state, Server: e.Server, Time: time.Now()}:
			default:
				s.l.Debug("dropping state event", zap.Stringer("state", state))
			}
		}
	}
}

func (s *Session) markLost(err error) {
	select {
	case <-s.lost:
	default:
		s.lostErr = err
		close(s.lost)
	}
}

func (s *Session) wrap(op, path string, err error) error {
	switch {
	case errors.Is(err, zk.ErrNoNode):
		err = errors.Wrap(store.ErrNoNode, err.Error())
	case errors.Is(err, zk.ErrSessionExpired), errors.Is(err, zk.ErrClosing), errors.Is(err, zk.ErrNoServer):
		err = errors.Wrap(store.ErrSessionLost, err.Error())
	}
	return store.NewStoreError(op, path, err)
}

func translateState(state zk.State) store.State {
	switch state {
	case zk.StateConnecting:
		return store.StateConnecting
	case zk.StateHasSession:
		return store.StateConnected
	case zk.StateDisconnected:
		return store.StateSuspended
	case zk.StateExpired, zk.StateAuthFailed:
		return store.StateLost
	default:
		return store.StateUnknown
	}
}

func listPath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

// parents returns the proper ancestors of path, outermost first.
func parents(path string) []string {
	var ret []string
	for i := 1; i < len(path); i++ {
		if path[i] == '/' {
			ret = append(ret, path[:i])
		}
	}
	return ret
}

// logger routes zk client logs to zap
type logger struct {
	l *zap.SugaredLogger
}

func (l *logger) Printf(format string, args ...interface{}) {
	l.l.Debugf(strings.TrimSuffix(format, "\n"), args...)
}
