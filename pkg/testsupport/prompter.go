package testsupport

import (
	"context"
	"fmt"

	"github.com/goliatone/go-keyforms/pkg/form"
)

// Prompter fills form instances from scripted raw values keyed by form name
// and then field name. Fields without a scripted value keep what the
// instance was seeded with.
type Prompter struct {
	Values        map[string]map[string]string
	Confirmations []bool

	Titles   []string
	Notices  []string
	Failures []string
}

// Fill writes the scripted values and validates the instance.
func (p *Prompter) Fill(_ context.Context, title string, inst form.Instance) (any, error) {
	p.Titles = append(p.Titles, title)
	values := p.Values[inst.Name()]
	for _, meta := range inst.Fields() {
		raw, ok := values[meta.Name]
		if !ok {
			continue
		}
		if err := inst.Change(meta.Name, raw); err != nil {
			return nil, err
		}
	}
	value, issues := inst.Validate()
	if len(issues) > 0 {
		return nil, fmt.Errorf("testsupport: %s: %w", inst.Name(), issues)
	}
	return value, nil
}

// Confirm pops the next scripted answer, defaulting to def.
func (p *Prompter) Confirm(_ context.Context, _ string, def bool) (bool, error) {
	if len(p.Confirmations) == 0 {
		return def, nil
	}
	answer := p.Confirmations[0]
	p.Confirmations = p.Confirmations[1:]
	return answer, nil
}

// Notify records a success message.
func (p *Prompter) Notify(_ context.Context, format string, args ...any) error {
	p.Notices = append(p.Notices, fmt.Sprintf(format, args...))
	return nil
}

// Fail records an error message.
func (p *Prompter) Fail(_ context.Context, err error) error {
	if err != nil {
		p.Failures = append(p.Failures, err.Error())
	}
	return nil
}
