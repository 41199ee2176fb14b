// Package logrus adapts sirupsen/logrus to assetcache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/assetcache"
)

var _ assetcache.Logger = Logger{}

// Logger writes through E. An "err" field holding an error is attached with
// WithError so formatters render it as logrus.ErrorKey.
type Logger struct{ E *logrus.Entry }

func New(l *logrus.Logger) Logger {
	return Logger{E: logrus.NewEntry(l).WithField("component", "assetcache")}
}

func (l Logger) Debug(msg string, f assetcache.Fields) { l.entry(f).Debug(msg) }
func (l Logger) Info(msg string, f assetcache.Fields)  { l.entry(f).Info(msg) }
func (l Logger) Warn(msg string, f assetcache.Fields)  { l.entry(f).Warn(msg) }
func (l Logger) Error(msg string, f assetcache.Fields) { l.entry(f).Error(msg) }

func (l Logger) entry(f assetcache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	lf := make(logrus.Fields, len(f))
	var cause error
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			cause = err
			continue
		}
		lf[k] = v
	}
	e := l.E.WithFields(lf)
	if cause != nil {
		e = e.WithError(cause)
	}
	return e
}
