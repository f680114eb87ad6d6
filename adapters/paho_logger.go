package adapters

import (
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// pahoLogger forwards paho's internal diagnostics into zerolog.
type pahoLogger struct {
	log   zerolog.Logger
	level zerolog.Level
}

func (p pahoLogger) Println(v ...interface{}) {
	p.log.WithLevel(p.level).Msg(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (p pahoLogger) Printf(format string, v ...interface{}) {
	p.log.WithLevel(p.level).Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// SetPahoLogger routes paho's package level loggers through log. Paho debug
// output is very chatty and is only wired when log is at trace level.
func SetPahoLogger(log zerolog.Logger) {
	mqtt.CRITICAL = pahoLogger{log: log, level: zerolog.ErrorLevel}
	mqtt.ERROR = pahoLogger{log: log, level: zerolog.ErrorLevel}
	mqtt.WARN = pahoLogger{log: log, level: zerolog.WarnLevel}

	if log.GetLevel() <= zerolog.TraceLevel && zerolog.GlobalLevel() <= zerolog.TraceLevel {
		mqtt.DEBUG = pahoLogger{log: log, level: zerolog.TraceLevel}
	} else {
		mqtt.DEBUG = mqtt.NOOPLogger{}
	}
}
