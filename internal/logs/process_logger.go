package logs

import (
	"tmi-forms-api/config"

	"github.com/sirupsen/logrus"
)

// ProcessLogger writes activity entries to the process log only. It stands in
// for LogService when no postgres database is configured.
type ProcessLogger struct {
	Out *logrus.Logger
}

var _ Logger = ProcessLogger{}

func (p ProcessLogger) Log(entry SystemLog, metadata interface{}) error {
	out := p.Out
	if out == nil {
		out = config.Log
	}

	fields := logrus.Fields{
		"service": entry.Service,
		"action":  entry.Action,
	}
	if entry.TemplateID != nil {
		fields["template_id"] = *entry.TemplateID
	}
	if len(entry.FieldIDs) > 0 {
		fields["field_ids"] = []string(entry.FieldIDs)
	}
	if metadata != nil {
		fields["metadata"] = metadata
	}

	lvl, err := logrus.ParseLevel(entry.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	out.WithFields(fields).Log(lvl, entry.Message)
	return nil
}
