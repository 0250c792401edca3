package action

// Registry is a read-only, ordered table of actions keyed by name.
type Registry struct {
	actions []Action
	byName  map[string]Action
}

// NewRegistry builds a registry in the given order. When two actions share a
// name the first one wins.
func NewRegistry(actions ...Action) *Registry {
	r := &Registry{byName: make(map[string]Action, len(actions))}
	for _, a := range actions {
		name := a.Describe().Name
		if _, dup := r.byName[name]; dup {
			continue
		}
		r.byName[name] = a
		r.actions = append(r.actions, a)
	}
	return r
}

var builtin = NewRegistry(
	CompressPNG{},
	PowerOfTwo{},
	VerifyPBR{},
	StrippedMetadata{},
)

// Builtin returns the registry of actions shipped with the processor.
func Builtin() *Registry {
	return builtin
}

// All returns every registered action in registration order.
func (r *Registry) All() []Action {
	out := make([]Action, len(r.actions))
	copy(out, r.actions)
	return out
}

// Visible returns the actions a presentation layer should offer as toggles.
func (r *Registry) Visible() []Action {
	var out []Action
	for _, a := range r.actions {
		if a.Describe().Visible {
			out = append(out, a)
		}
	}
	return out
}

// Lookup returns the action registered under name.
func (r *Registry) Lookup(name string) (Action, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// Descriptors returns the identity of every registered action.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.actions))
	for _, a := range r.actions {
		out = append(out, a.Describe())
	}
	return out
}

// Select returns the active actions in registration order.
//
// A nil ids slice means no allow-list was given and the default-enabled actions
// are returned. A non-nil slice, even an empty one, returns exactly the actions
// whose names it contains; unknown names are ignored.
func (r *Registry) Select(ids []string) []Action {
	var out []Action
	if ids == nil {
		for _, a := range r.actions {
			if a.Describe().DefaultEnabled {
				out = append(out, a)
			}
		}
		return out
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	for _, a := range r.actions {
		if _, ok := wanted[a.Describe().Name]; ok {
			out = append(out, a)
		}
	}
	return out
}
