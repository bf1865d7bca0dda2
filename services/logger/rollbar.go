package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/eduquest/academy/core"
	"github.com/eduquest/academy/core/account"
)

// printed level tags
var levelTags = map[string]string{
	rollbar.DEBUG: "DEBUG",
	rollbar.INFO:  "INFO ",
	rollbar.WARN:  "WARN ",
	rollbar.ERR:   "ERROR",
	rollbar.CRIT:  "FATAL",
}

// PortalLogger prints every entry and reports warnings and worse to Rollbar.
// Debug entries are only printed when the portal runs in debug mode.
type PortalLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*PortalLogger)(nil)

// NewPortalLogger configures the Rollbar notifier, which stays off in debug mode or without a token.
func NewPortalLogger(std *log.Logger, conf *core.Config) *PortalLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(!conf.Debug && conf.RollbarToken != "")
	return &PortalLogger{std: std, debug: conf.Debug}
}

// report hands an entry to Rollbar, attributing it to the signed-in visitor found among args.
// expected args: error, map[string]interface{}, account.Identity
func report(level, msg string, args []interface{}) {
	var person *account.Identity
	data := make([]interface{}, 0, len(args)+1)
	data = append(data, msg)
	for _, arg := range args {
		if id, ok := arg.(account.Identity); ok {
			if person == nil && id.Authenticated {
				person = &id
			}
			continue
		}
		data = append(data, arg)
	}
	if person != nil {
		rollbar.SetPerson(string(person.UserType)+":"+person.Username, person.Username, "")
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, data...)
}

func (l *PortalLogger) log(level, msg string, args []interface{}) {
	if level == rollbar.DEBUG && !l.debug {
		return
	}
	l.std.Printf("%s %s\n", levelTags[level], msg)
	for _, arg := range args {
		if id, ok := arg.(account.Identity); ok {
			l.std.Printf("\tvisitor: %s %s\n", id.UserType, id.Username)
			continue
		}
		l.std.Printf("\t%+v\n", arg)
	}
	if level != rollbar.DEBUG && level != rollbar.INFO {
		report(level, msg, args)
	}
}

func (l *PortalLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, msg, args) }
func (l *PortalLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, msg, args) }
func (l *PortalLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, msg, args) }
func (l *PortalLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

func (l *PortalLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
