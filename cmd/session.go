package cmd

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/foomo/zkdump/pkg/store"
	"github.com/foomo/zkdump/pkg/store/zookeeper"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// newSession dials the configured servers, replaced in tests
var newSession = func(l *zap.Logger, servers []string, v *viper.Viper) (store.Session, error) {
	return zookeeper.Connect(l, servers,
		zookeeper.WithSessionTimeout(sessionTimeoutFlag(v)),
		zookeeper.WithConnectTimeout(connectTimeoutFlag(v)),
	)
}

// serverAddresses joins every comma separated host with port unless it carries its own
func serverAddresses(server string, port int) []string {
	var ret []string
	for _, host := range strings.Split(server, ",") {
		host = strings.TrimSpace(host)
		if host == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(host); err == nil {
			ret = append(ret, host)
			continue
		}
		ret = append(ret, net.JoinHostPort(host, strconv.Itoa(port)))
	}
	return ret
}

func validateSession(v *viper.Viper) error {
	if len(serverAddresses(serverFlag(v), portFlag(v))) == 0 {
		return fmt.Errorf("parameter --server is mandatory")
	}
	if port := portFlag(v); port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}
	return nil
}

// withSession connects, waits for the connected state and runs fn. State changes
// are logged while fn runs, the session is closed once fn returns.
func withSession(ctx context.Context, l *zap.Logger, v *viper.Viper, fn func(s store.Store) error) error {
	servers := serverAddresses(serverFlag(v), portFlag(v))
	session, err := newSession(l, servers, v)
	if err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logStateEvents(l, session.Events())
		return nil
	})
	g.Go(func() (err error) {
		defer func() {
			err = multierr.Append(err, session.Close())
		}()
		if err := session.AwaitConnected(gCtx); err != nil {
			return err
		}
		return fn(session)
	})
	return g.Wait()
}

func logStateEvents(l *zap.Logger, events <-chan store.StateEvent) {
	for e := range events {
		fields := []zap.Field{zap.Stringer("state", e.State), zap.String("server", e.Server)}
		switch e.State {
		case store.StateConnected:
			l.Info("successfully connected to zookeeper host", fields...)
		case store.StateSuspended:
			l.Warn("connection to zookeeper has been suspended", fields...)
		case store.StateLost:
			l.Error("connection to zookeeper has been dropped", fields...)
		default:
			l.Debug("zookeeper connection state changed", fields...)
		}
	}
}
