package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-keyforms/pkg/form"
)

// Runner drives a form instance through a Driver: one prompt per field,
// field errors re-asked immediately, record-level errors re-asked after the
// whole form was filled.
type Runner struct {
	driver      Driver
	theme       Theme
	maxAttempts int
}

// RunnerOption customises a Runner.
type RunnerOption func(*Runner)

// WithTheme overrides the message styles.
func WithTheme(theme Theme) RunnerOption {
	return func(r *Runner) {
		r.theme = theme
	}
}

// WithMaxAttempts bounds how many times a single field is asked in a row.
// Zero means no bound.
func WithMaxAttempts(n int) RunnerOption {
	return func(r *Runner) {
		if n >= 0 {
			r.maxAttempts = n
		}
	}
}

// ErrTooManyAttempts is returned when a field keeps failing validation.
var ErrTooManyAttempts = errors.New("prompt: too many invalid attempts")

// NewRunner wires a driver. A nil driver uses the interactive survey driver.
func NewRunner(driver Driver, opts ...RunnerOption) *Runner {
	if driver == nil {
		driver = NewSurveyDriver(nil)
	}
	r := &Runner{driver: driver, theme: DefaultTheme()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Fill asks every field of inst and returns the validated record. The record
// has the concrete type of the instance's definition.
func (r *Runner) Fill(ctx context.Context, title string, inst form.Instance) (any, error) {
	if inst == nil {
		return nil, errors.New("prompt: instance is nil")
	}
	if title != "" {
		if err := r.driver.Info(ctx, r.theme.Title.Render(title)); err != nil {
			return nil, err
		}
	}

	targets := inst.Fields()
	for {
		for _, meta := range targets {
			if err := r.askField(ctx, inst, meta); err != nil {
				return nil, err
			}
		}

		value, issues := inst.Validate()
		if len(issues) == 0 {
			return value, nil
		}
		for _, message := range inst.FormErrors() {
			_ = r.driver.Info(ctx, r.theme.Error.Render(message))
		}
		targets = failing(inst)
	}
}

// Confirm asks a yes/no question.
func (r *Runner) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	return r.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: def})
}

// Notify prints a success line.
func (r *Runner) Notify(ctx context.Context, format string, args ...any) error {
	return r.driver.Info(ctx, r.theme.Success.Render(fmt.Sprintf(format, args...)))
}

// Note prints a muted line.
func (r *Runner) Note(ctx context.Context, format string, args ...any) error {
	return r.driver.Info(ctx, r.theme.Muted.Render(fmt.Sprintf(format, args...)))
}

// Fail prints err as an error line.
func (r *Runner) Fail(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return r.driver.Info(ctx, r.theme.Error.Render(err.Error()))
}

func (r *Runner) askField(ctx context.Context, inst form.Instance, meta form.FieldMeta) error {
	label := labelOf(meta)
	for attempt := 1; ; attempt++ {
		raw, err := r.ask(ctx, inst, meta)
		if err != nil {
			return err
		}
		messages, err := apply(inst, meta, raw)
		if err != nil {
			return err
		}
		if len(messages) == 0 {
			return nil
		}
		_ = r.driver.Info(ctx, r.theme.Error.Render(fmt.Sprintf("Invalid %s: %s", label, strings.Join(messages, "; "))))
		if r.maxAttempts > 0 && attempt >= r.maxAttempts {
			return fmt.Errorf("%w: %s", ErrTooManyAttempts, meta.Name)
		}
	}
}

func (r *Runner) ask(ctx context.Context, inst form.Instance, meta form.FieldMeta) (string, error) {
	message := labelOf(meta)
	current := inst.Display(meta.Name)

	switch meta.Kind {
	case form.KindSecret:
		return r.driver.Password(ctx, InputConfig{Message: message, Help: meta.Help})
	case form.KindTextArea:
		return r.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: current, Help: meta.Help})
	case form.KindChoice:
		if len(meta.Options) == 0 {
			break
		}
		labels := make([]string, len(meta.Options))
		def := 0
		for i, option := range meta.Options {
			labels[i] = option.Label
			if option.Value == current {
				def = i
			}
		}
		idx, err := r.driver.Select(ctx, SelectConfig{Message: message, Options: labels, DefaultIndex: def, Help: meta.Help})
		if err != nil {
			return "", err
		}
		if idx < 0 || idx >= len(meta.Options) {
			return "", fmt.Errorf("prompt: %s: selection %d out of range", meta.Name, idx)
		}
		return meta.Options[idx].Value, nil
	}

	help := meta.Help
	if meta.Placeholder != "" {
		if help != "" {
			help += " "
		}
		help += "(" + meta.Placeholder + ")"
	}
	if current == "0" && meta.Kind == form.KindNumber {
		current = ""
	}
	return r.driver.Input(ctx, InputConfig{Message: message, Default: current, Help: help})
}

// apply routes raw through the instance. Input the transform rejects keeps
// its conversion message instead of a blur pass, which would validate the
// previous value.
func apply(inst form.Instance, meta form.FieldMeta, raw string) ([]string, error) {
	rejected := false
	if meta.Transform != nil {
		_, err := meta.Transform(raw)
		rejected = err != nil
	}
	if err := inst.Change(meta.Name, raw); err != nil {
		return nil, err
	}
	if rejected {
		return inst.FieldErrors(meta.Name), nil
	}
	return inst.Blur(meta.Name), nil
}

// failing lists the fields that currently carry messages. When only
// record-level messages remain every field is asked again.
func failing(inst form.Instance) []form.FieldMeta {
	fields := inst.Fields()
	var out []form.FieldMeta
	for _, meta := range fields {
		if len(inst.FieldErrors(meta.Name)) > 0 {
			out = append(out, meta)
		}
	}
	if len(out) == 0 {
		return fields
	}
	return out
}

func labelOf(meta form.FieldMeta) string {
	if meta.Label != "" {
		return meta.Label
	}
	return meta.Name
}
