package rollbar

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// namer is implemented by errors that report their own name, like PanicError.
type namer interface {
	Name() string
}

// buildPayload renders an occurrence into the canonical payload. It performs
// no I/O besides calling the configured context provider.
func buildPayload(o Occurrence, c *Configuration, host Host) (*Object, error) {
	title := o.Title
	if !c.IsBrowserSupported {
		title = c.BrowserUnsupportedTitlePrefix + title
	}

	data := payloadData{
		Body: buildBody(title, o.Error),
		Client: clientInfo{Javascript: javascriptInfo{
			Browser:             host.UserAgent(),
			CodeVersion:         c.CommitHash,
			GuessUncaughtFrames: true,
			SourceMapEnabled:    true,
		}},
		Context: c.SetContext(),
		Custom: customInfo{
			IsBrowserSupported: c.IsBrowserSupported,
			LanguagePreferred:  host.Language(),
			Languages:          strings.Join(host.Languages(), ", "),
			ReportingMethod:    ReportingMethodBeacon,
			LocationInfo:       c.LocationInfo,
		},
		Environment: c.Environment,
		Framework:   payloadFramework,
		Language:    payloadLanguage,
		Level:       o.Level,
		Notifier:    Notifier{Name: SDKName, Version: SDKVersion},
		Person:      c.UserInfo,
		Platform:    payloadPlatform,
		Title:       title,
	}

	if o.ActionHistory != nil {
		history, err := json.Marshal(o.ActionHistory)
		if err != nil {
			return nil, fmt.Errorf("%w: actionHistory: %v", ErrUnserializableOccurrence, err)
		}
		data.Custom.ActionHistory = string(history)
	}
	if o.ApplicationState != nil {
		state, err := json.Marshal(o.ApplicationState)
		if err != nil {
			return nil, fmt.Errorf("%w: applicationState: %v", ErrUnserializableOccurrence, err)
		}
		data.Custom.ApplicationState = string(state)
	}
	if c.HasConfigurationInPayload {
		data.Custom.Configuration = c.serialize()
	}

	switch {
	case c.Fingerprint != "":
		data.Fingerprint = Pointer(c.Fingerprint)
	case !c.DisableFingerprint:
		data.Fingerprint = Pointer(title)
	}

	tree, err := toTree(payload{AccessToken: c.AccessToken, Data: data})
	if err != nil {
		return nil, err
	}
	p := tree.(*Object)

	if c.CustomPayloadFields != nil {
		overlay, err := toTree(c.CustomPayloadFields)
		if err != nil {
			return nil, fmt.Errorf("customPayloadFields: %w", err)
		}
		if obj, ok := overlay.(*Object); ok {
			deepMerge(p, obj)
		}
	}

	return canonicalize(p).(*Object), nil
}

func buildBody(title string, err error) Body {
	if err == nil {
		return Body{Message: &Message{Body: title}}
	}

	stack, frames := extractStack(err)
	class := errorClass(err)
	name := class
	if n, ok := err.(namer); ok && n.Name() != "" {
		name = n.Name()
	}

	return Body{Trace: &Trace{
		Exception: Exception{
			Class:       class,
			Description: title,
			Message:     err.Error(),
			Raw:         name + ": " + err.Error(),
			Stack:       stack,
		},
		Frames: frames,
	}}
}

// errorClass names the concrete type of err, falling back to its Name method
// for anonymous types and to "(unknown)" when neither is available.
func errorClass(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	if n, ok := err.(namer); ok && n.Name() != "" {
		return n.Name()
	}
	return unknown
}
