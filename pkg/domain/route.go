package domain

// ValuesParam is the query parameter carrying the state string for "set" routes.
const ValuesParam = "values"

// APIPrefix is the common prefix of every gateway route.
const APIPrefix = "/api/v1"

// Serial interface command tokens.
const (
	CommandPhaseQuery  = "PHASE?"
	CommandPhase       = "PHASE"
	CommandSwitchQuery = "SW?"
	CommandSwitch      = "SW"
	CommandZCSQuery    = "ZCS?"
	CommandZCS         = "ZCS"
)

// Route maps one gateway path to a serial interface command template.
// A route either carries fixed arguments or takes its single argument from the
// values query parameter; never both.
type Route struct {
	Path        string   `json:"path" yaml:"path"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Command     string   `json:"command" yaml:"command"`
	FixedArgs   []string `json:"fixed_args,omitempty" yaml:"fixed_args,omitempty"`
	TakesValue  bool     `json:"takes_value,omitempty" yaml:"takes_value,omitempty"`
}

// Invocation builds the invocation for this route. value is only consulted when
// the route takes a value; callers must reject a nil value before getting here.
func (r Route) Invocation(value *string) Invocation {
	args := append([]string(nil), r.FixedArgs...)
	if r.TakesValue && value != nil {
		args = append(args, *value)
	}
	return Invocation{Route: r.Name, Command: r.Command, Args: args}
}

var routes = []Route{
	{
		Path:        APIPrefix + "/phases/status",
		Name:        "phases_status",
		Description: "Read the current phase assignment string (one of '1', '2', '3' per unit).",
		Command:     CommandPhaseQuery,
	},
	{
		Path:        APIPrefix + "/phases",
		Name:        "set_phases",
		Description: "Set the phase assignment of every unit from a phase string.",
		Command:     CommandPhase,
		TakesValue:  true,
	},
	{
		Path:        APIPrefix + "/switches/status",
		Name:        "switches_status",
		Description: "Read the current switch state string (one of '0', '1' per unit).",
		Command:     CommandSwitchQuery,
	},
	{
		Path:        APIPrefix + "/switches",
		Name:        "set_switches",
		Description: "Set the state of every switch from a switch string.",
		Command:     CommandSwitch,
		TakesValue:  true,
	},
	{
		Path:        APIPrefix + "/zcs/status",
		Name:        "zcs_status",
		Description: "Read the zero-crossing switch state.",
		Command:     CommandZCSQuery,
	},
	{
		Path:        APIPrefix + "/zcs/on",
		Name:        "zcs_on",
		Description: "Enable the zero-crossing switch.",
		Command:     CommandZCS,
		FixedArgs:   []string{"ON"},
	},
	{
		Path:        APIPrefix + "/zcs/off",
		Name:        "zcs_off",
		Description: "Disable the zero-crossing switch.",
		Command:     CommandZCS,
		FixedArgs:   []string{"OFF"},
	},
}

// Routes returns a copy of the fixed route table, in declaration order.
func Routes() []Route {
	out := make([]Route, len(routes))
	for i, r := range routes {
		r.FixedArgs = append([]string(nil), r.FixedArgs...)
		out[i] = r
	}
	return out
}
