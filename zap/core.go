package rollbarzap

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tabsight/rollbar-client-go"
)

type core struct {
	logger Logger
	cfg    *Configuration
	zapcore.LevelEnabler

	err     error
	actions []rollbar.Action
	fields  map[string]any
}

func (c *core) With(fs []zapcore.Field) zapcore.Core {
	return c.with(fs)
}

func (c *core) with(fs []zapcore.Field) *core {
	fields := make(map[string]any, len(c.fields)+len(fs))
	for k, v := range c.fields {
		fields[k] = v
	}

	err := c.err
	actions := c.actions

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fs {
		switch f.Type {
		case zapcore.ErrorType:
			if e, ok := f.Interface.(error); ok && err == nil {
				err = e
				continue
			}
		case zapcore.SkipType:
			if a, ok := f.Interface.([]rollbar.Action); ok && f.Key == actionsKey {
				actions = a
			}
			continue
		}
		f.AddTo(enc)
	}

	for k, v := range enc.Fields {
		fields[k] = v
	}

	return &core{
		logger:       c.logger,
		cfg:          c.cfg,
		LevelEnabler: c.LevelEnabler,
		err:          err,
		actions:      actions,
		fields:       fields,
	}
}

func (c *core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *core) Write(ent zapcore.Entry, fs []zapcore.Field) error {
	if rollbar.IsConsoleLine(ent.Message) {
		return nil
	}
	if c.cfg.LoggerNameKey != "" && ent.LoggerName != "" {
		fs = append(fs, zap.String(c.cfg.LoggerNameKey, ent.LoggerName))
	}
	clone := c.with(fs)

	o := rollbar.Occurrence{
		Level:         levelMap[ent.Level],
		Title:         ent.Message,
		Error:         clone.err,
		ActionHistory: clone.actions,
	}
	if len(clone.fields) > 0 {
		o.ApplicationState = clone.fields
	}
	if o.Title == "" && o.Error != nil {
		o.Title = o.Error.Error()
	}

	if err := c.logger.Log(o); err != nil {
		return err
	}

	if ent.Level > zapcore.ErrorLevel {
		return c.Sync()
	}
	return nil
}

func (c *core) Sync() error {
	c.logger.Flush(c.cfg.FlushTimeout)
	return nil
}
