package timeline

import (
	"fmt"

	"github.com/okian/bout/internal/domain/types"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Describer renders the human-readable text of an entry.
type Describer interface {
	Describe(kind types.Kind, c types.Competitor, delta int) string
}

// Catalog keys take the competitor and the signed delta.
var catalogs = map[language.Tag]map[string]string{
	language.English: {
		"timeline.point.one":   "Competitor %s %+d point",
		"timeline.point.other": "Competitor %s %+d points",
		"timeline.foul.one":    "Competitor %s %+d foul",
		"timeline.foul.other":  "Competitor %s %+d fouls",
		"timeline.exit.one":    "Competitor %s %+d exit",
		"timeline.exit.other":  "Competitor %s %+d exits",
	},
	language.Spanish: {
		"timeline.point.one":   "Peleador %s %+d punto",
		"timeline.point.other": "Peleador %s %+d puntos",
		"timeline.foul.one":    "Peleador %s %+d falta",
		"timeline.foul.other":  "Peleador %s %+d faltas",
		"timeline.exit.one":    "Peleador %s %+d salida",
		"timeline.exit.other":  "Peleador %s %+d salidas",
	},
}

func init() {
	for tag, messages := range catalogs {
		for key, msg := range messages {
			if err := message.SetString(tag, key, msg); err != nil {
				panic(fmt.Sprintf("register timeline catalog %s/%s: %v", tag, key, err))
			}
		}
	}
}

// LocalizedDescriber prints descriptions from the registered catalogs.
type LocalizedDescriber struct {
	printer *message.Printer
}

// NewDescriber picks the catalog for locale by its base language and falls
// back to English for anything unknown or unparsable.
func NewDescriber(locale string) *LocalizedDescriber {
	tag := language.English
	if parsed, err := language.Parse(locale); err == nil {
		if base, _ := parsed.Base(); base.String() == "es" {
			tag = language.Spanish
		}
	}
	return &LocalizedDescriber{printer: message.NewPrinter(tag)}
}

// Describe chooses singular or plural by the magnitude of delta.
func (d *LocalizedDescriber) Describe(kind types.Kind, c types.Competitor, delta int) string {
	form := "other"
	if delta == 1 || delta == -1 {
		form = "one"
	}
	key := "timeline." + string(kind) + "." + form
	return d.printer.Sprintf(key, c.String(), delta)
}
