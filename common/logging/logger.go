package logging

import (
	"fmt"
	"os"
	"time"

	"github.com/procnet/inproc/common/check"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

func SetupGlobalLogger(level string) {
	check.PanicIfErr(TrySetupGlobalLevel(level))
	log.Logger = NewLogger("global")
}

func TrySetupGlobalLevel(level string) error {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(l)
	return nil
}

// formatPart renders the [component] column of the console output, bold when
// color is on. Other parts pass through untouched.
func formatPart(noColor bool) func(any, string) string {
	return func(v any, name string) string {
		if name != FieldComponent {
			return fmt.Sprintf("%s", v)
		}
		if noColor {
			return fmt.Sprintf("[%s]\t", v)
		}
		const colorBold = 1
		return fmt.Sprintf("\x1b[%dm[%s]\t\x1b[0m", colorBold, v)
	}
}

// NewLogger returns a console logger tagged with a component name, e.g. the
// server name a transport binds under. Output goes to stderr; color is
// dropped when stderr is not a terminal or NO_COLOR is set.
func NewLogger(component string) zerolog.Logger {
	noColor := os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(os.Stderr.Fd()))
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.DateTime,
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			FieldComponent,
			zerolog.CallerFieldName,
			zerolog.MessageFieldName,
		},
		FieldsExclude:         []string{FieldComponent},
		FormatPartValueByName: formatPart(noColor),
		NoColor:               noColor,
	}).
		With().
		Str(FieldComponent, component).
		Caller().
		Timestamp().
		Logger()
}
