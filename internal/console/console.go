// Package console implements a logiface backend that renders events as
// human-readable progress lines, using zerolog's ConsoleWriter.
//
// An event carrying an integer "tid" field is rendered as
//
//	[tid=<id>] <message> key=value ...
//
// which is the diagnostic format the release protocol writes to stdout.
package console

import (
	"fmt"
	"io"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

// ThreadField is the field key rendered as the line prefix.
const ThreadField = `tid`

type (
	Event struct {
		logiface.UnimplementedEvent
		z   *zerolog.Event
		lvl logiface.Level
		msg string
	}

	Logger struct {
		z zerolog.Logger
	}
)

var (
	// compile time assertions

	_ logiface.Event                = (*Event)(nil)
	_ logiface.EventFactory[*Event] = (*Logger)(nil)
	_ logiface.Writer[*Event]       = (*Logger)(nil)
)

// New returns a logger writing progress lines to w, filtering out events
// less severe than level.
func New(w io.Writer, level logiface.Level) *logiface.Logger[*Event] {
	l := &Logger{z: zerolog.New(Writer(w))}
	return logiface.New[*Event](
		logiface.WithEventFactory[*Event](l),
		logiface.WithWriter[*Event](l),
		logiface.WithLevel[*Event](level),
	)
}

// Writer returns the zerolog.ConsoleWriter used by New.
func Writer(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:           w,
		NoColor:       true,
		PartsOrder:    []string{zerolog.MessageFieldName},
		FormatPrepare: prepare,
	}
}

// prepare folds the thread field into the message.
func prepare(evt map[string]any) error {
	tid, ok := evt[ThreadField]
	if !ok {
		return nil
	}
	delete(evt, ThreadField)
	msg, _ := evt[zerolog.MessageFieldName].(string)
	evt[zerolog.MessageFieldName] = fmt.Sprintf(`[tid=%v] %s`, tid, msg)
	return nil
}

func (x *Event) Level() logiface.Level {
	if x != nil {
		return x.lvl
	}
	return logiface.LevelDisabled
}

func (x *Event) AddField(key string, val any) {
	x.z.Interface(key, val)
}

func (x *Event) AddMessage(msg string) bool {
	x.msg = msg
	return true
}

func (x *Event) AddError(err error) bool {
	x.z.Err(err)
	return true
}

func (x *Event) AddString(key string, val string) bool {
	x.z.Str(key, val)
	return true
}

func (x *Event) AddInt(key string, val int) bool {
	x.z.Int(key, val)
	return true
}

func (x *Event) AddInt64(key string, val int64) bool {
	x.z.Int64(key, val)
	return true
}

func (x *Event) AddUint64(key string, val uint64) bool {
	x.z.Uint64(key, val)
	return true
}

func (x *Event) AddBool(key string, val bool) bool {
	x.z.Bool(key, val)
	return true
}

func (x *Event) AddDuration(key string, val time.Duration) bool {
	x.z.Str(key, val.String())
	return true
}

func (x *Logger) NewEvent(level logiface.Level) *Event {
	if !level.Enabled() {
		return nil
	}
	r := Event{lvl: level}
	switch level {
	case logiface.LevelTrace:
		r.z = x.z.Trace()
	case logiface.LevelDebug:
		r.z = x.z.Debug()
	case logiface.LevelInformational:
		r.z = x.z.Info()
	case logiface.LevelNotice, logiface.LevelWarning:
		r.z = x.z.Warn()
	case logiface.LevelError:
		r.z = x.z.Error()
	default:
		// critical and above: WithLevel never exits or panics, the caller
		// decides how to terminate
		r.z = x.z.WithLevel(zerolog.FatalLevel)
	}
	return &r
}

func (x *Logger) Write(event *Event) error {
	event.z.Msg(event.msg)
	return nil
}
