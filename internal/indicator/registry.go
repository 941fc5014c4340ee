package indicator

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

const defaultPeriod = 20

// Spec is one client-supplied indicator request. Kind selects the
// implementation ("sma" is the only kind today); ID defaults to
// "<kind>-<period>" when omitted.
type Spec struct {
	ID     string          `json:"id"`
	Kind   string          `json:"type"`
	Params json.RawMessage `json:"params"`
}

type specParams struct {
	Period json.RawMessage `json:"period"`
}

// Registry holds the indicator instances for one session, keyed by id.
// Iteration order follows the order ids first appeared in the spec list.
type Registry struct {
	order []string
	byID  map[string]Indicator
}

// ParseSpecs decodes the raw indicators query parameter into a Registry.
//
// Malformed JSON or a non-array payload is an error (session-fatal at the
// transport layer). Individual specs that are not objects, request an
// unsupported kind, or carry an unusable period are skipped silently.
// When two specs resolve to the same id, the later spec's instance wins.
func ParseSpecs(raw string) (*Registry, error) {
	r := &Registry{byID: make(map[string]Indicator)}
	if raw == "" {
		return r, nil
	}

	var specs []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &specs); err != nil {
		return nil, fmt.Errorf("invalid indicators payload: %w", err)
	}

	for _, entry := range specs {
		var spec Spec
		if err := json.Unmarshal(entry, &spec); err != nil {
			continue // not an object
		}
		if spec.Kind != "sma" {
			continue
		}
		period, ok := resolvePeriod(spec.Params)
		if !ok {
			continue
		}
		id := spec.ID
		if id == "" {
			id = fmt.Sprintf("%s-%d", spec.Kind, period)
		}
		r.register(id, NewSMA(period))
	}
	return r, nil
}

// resolvePeriod coerces the period param to a positive integer. Missing
// params default to defaultPeriod; unparseable or non-positive values make
// the spec unusable.
func resolvePeriod(params json.RawMessage) (int, bool) {
	if len(params) == 0 || string(params) == "null" {
		return defaultPeriod, true
	}

	var p specParams
	if err := json.Unmarshal(params, &p); err != nil {
		return 0, false
	}
	if len(p.Period) == 0 || string(p.Period) == "null" {
		return defaultPeriod, true
	}

	// Accept both numeric and string-encoded periods.
	var asFloat float64
	if err := json.Unmarshal(p.Period, &asFloat); err != nil {
		var asString string
		if err := json.Unmarshal(p.Period, &asString); err != nil {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(asString, 64)
		if err != nil {
			return 0, false
		}
		asFloat = parsed
	}
	if math.IsNaN(asFloat) || asFloat < 1 {
		return 0, false
	}
	return int(asFloat), true
}

func (r *Registry) register(id string, ind Indicator) {
	if _, exists := r.byID[id]; !exists {
		r.order = append(r.order, id)
	}
	r.byID[id] = ind
}

// Len returns the number of registered indicators.
func (r *Registry) Len() int { return len(r.order) }

// Get returns the instance registered under id, if any.
func (r *Registry) Get(id string) (Indicator, bool) {
	ind, ok := r.byID[id]
	return ind, ok
}

// Apply feeds value to every registered indicator and returns the per-id
// results. Indicators still warming up map to nil so clients can tell
// "no value yet" from an actual zero. Returns nil when the registry is
// empty so the candle payload can omit the field entirely.
func (r *Registry) Apply(value float64) map[string]*float64 {
	if len(r.order) == 0 {
		return nil
	}
	out := make(map[string]*float64, len(r.order))
	for _, id := range r.order {
		if v, ok := r.byID[id].Update(value); ok {
			v := v
			out[id] = &v
		} else {
			out[id] = nil
		}
	}
	return out
}
