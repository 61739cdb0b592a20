package logsvc

import (
	"github.com/rollbar/rollbar-go"
	"go.uber.org/zap"

	"github.com/trezcool/nyumba/core"
)

// RollbarLogger reports to Rollbar and writes structured lines through zap.
type RollbarLogger struct {
	zl *zap.SugaredLogger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(zl *zap.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetEnabled(!(conf.Debug || conf.TestMode) && conf.RollbarToken != "")
	return &RollbarLogger{zl: zl.Sugar()}
}

// NewZapLogger builds a development logger in debug mode, a production one otherwise.
func NewZapLogger(conf *core.Config) (*zap.Logger, error) {
	if conf.TestMode {
		return zap.NewNop(), nil
	}
	var zc zap.Config
	if conf.Debug {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	return zc.Build(zap.AddCallerSkip(1), zap.Fields(zap.String("app", conf.AppName), zap.String("env", conf.Env)))
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, core.Person
func (l RollbarLogger) prepare(msg string, args []interface{}) (rbArgs, zapKVs []interface{}) {
	var personSet bool
	rbArgs = make([]interface{}, 0, len(args)+1)
	rbArgs = append(rbArgs, msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case core.Person:
			// set logged in Admin
			if !personSet { // only set one Person
				id, uname, email := a.LogIdentity()
				rollbar.SetPerson(id, uname, email)
				zapKVs = append(zapKVs, "person", id)
				personSet = true
			}
			continue
		case error:
			zapKVs = append(zapKVs, "error", a.Error())
		case map[string]interface{}:
			for k, v := range a {
				zapKVs = append(zapKVs, k, v)
			}
		default:
			zapKVs = append(zapKVs, "arg", a)
		}
		rbArgs = append(rbArgs, arg)
	}
	if !personSet {
		rollbar.ClearPerson()
	}
	return rbArgs, zapKVs
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rbArgs, kvs := l.prepare(msg, args)
	rollbar.Debug(rbArgs...)
	l.zl.Debugw(msg, kvs...)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rbArgs, kvs := l.prepare(msg, args)
	rollbar.Info(rbArgs...)
	l.zl.Infow(msg, kvs...)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rbArgs, kvs := l.prepare(msg, args)
	rollbar.Warning(rbArgs...)
	l.zl.Warnw(msg, kvs...)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rbArgs, kvs := l.prepare(msg, args)
	rollbar.Error(rbArgs...)
	l.zl.Errorw(msg, kvs...)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rbArgs, kvs := l.prepare(msg, args)
	rollbar.Critical(rbArgs...)
	rollbar.Wait()
	l.zl.Fatalw(msg, kvs...)
}

// Close flushes pending reports.
func (l RollbarLogger) Close() {
	rollbar.Close()
	_ = l.zl.Sync()
}
