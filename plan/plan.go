// Package plan is the static catalog of plan tiers and their monthly quotas.
package plan

import (
	"errors"
	"fmt"
	"strings"
)

// ID identifies a plan tier.
type ID string

const (
	Text     ID = "text"
	Pro      ID = "pro"
	Premium  ID = "premium"
	Business ID = "business"
)

// ErrUnknownPlan is returned by LimitsFor for identifiers outside the catalog.
var ErrUnknownPlan = errors.New("unknown plan")

// Limits holds the per-period quota of a plan.
type Limits struct {
	Messages     int     `json:"messages"`
	VoiceMinutes float64 `json:"voice_minutes"`
}

var catalog = map[ID]Limits{
	Text:     {Messages: 500, VoiceMinutes: 0},
	Pro:      {Messages: 750, VoiceMinutes: 500},
	Premium:  {Messages: 1500, VoiceMinutes: 1000},
	Business: {Messages: 2000, VoiceMinutes: 2000},
}

// All returns the known plans from most to least restrictive.
func All() []ID {
	return []ID{Text, Pro, Premium, Business}
}

// LimitsFor returns the quota for id.
func LimitsFor(id ID) (Limits, error) {
	l, ok := catalog[id]
	if !ok {
		return Limits{}, fmt.Errorf("%w: %q", ErrUnknownPlan, string(id))
	}
	return l, nil
}

// LimitsOrDefault resolves id, falling back to the text plan when it is unknown.
func LimitsOrDefault(id ID) (ID, Limits) {
	if l, err := LimitsFor(id); err == nil {
		return id, l
	}
	return Text, catalog[Text]
}

// Normalize derives a plan id from a license variant label such as "Pro Plan".
// The label is lowercased and one trailing " plan" is removed. An empty label
// yields Text. Unknown labels are returned as-is; use LimitsOrDefault to resolve them.
func Normalize(variant string) ID {
	v := strings.ToLower(strings.TrimSpace(variant))
	v = strings.TrimSpace(strings.TrimSuffix(v, " plan"))
	if v == "" {
		return Text
	}
	return ID(v)
}

// Known reports whether id is in the catalog.
func (id ID) Known() bool {
	_, ok := catalog[id]
	return ok
}

// VoiceCapable reports whether the plan includes any voice minutes.
func (id ID) VoiceCapable() bool {
	return catalog[id].VoiceMinutes > 0
}

func (id ID) String() string {
	return string(id)
}
