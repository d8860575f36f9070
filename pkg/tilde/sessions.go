package tilde

// Sessions is a group of sessions, typically the instances of a repeated
// nested template. Each method applies to every session in order and
// stops at the first error.
type Sessions []*RenderSession

// Len returns the number of sessions.
func (ss Sessions) Len() int { return len(ss) }

// Set calls Set on each session.
func (ss Sessions) Set(name string, value any) error {
	return ss.each(func(s *RenderSession) error { return s.Set(name, value) })
}

// SetGroup calls SetGroup on each session.
func (ss Sessions) SetGroup(name string, g VarGroup, value any) error {
	return ss.each(func(s *RenderSession) error { return s.SetGroup(name, g, value) })
}

// SetDelayed calls SetDelayed on each session. Every session evaluates fn
// separately.
func (ss Sessions) SetDelayed(name string, fn func() any) error {
	return ss.each(func(s *RenderSession) error { return s.SetDelayed(name, fn) })
}

// SetEach sets name in the i-th session to fn(i).
func (ss Sessions) SetEach(name string, fn func(i int) any) error {
	for i, s := range ss {
		if err := s.Set(name, fn(i)); err != nil {
			return err
		}
	}
	return nil
}

// Insert calls Insert on each session with the same data.
func (ss Sessions) Insert(data any, g VarGroup, names ...string) error {
	return ss.each(func(s *RenderSession) error { return s.Insert(data, g, names...) })
}

// Populate calls Populate on each session.
func (ss Sessions) Populate(name string, data any, g VarGroup, names ...string) error {
	return ss.each(func(s *RenderSession) error { return s.Populate(name, data, g, names...) })
}

// Enable calls Enable on each session.
func (ss Sessions) Enable(names ...string) error {
	return ss.each(func(s *RenderSession) error { return s.Enable(names...) })
}

// In collects the sessions reached by In(fqn) from each session.
func (ss Sessions) In(fqn string) (Sessions, error) {
	var out Sessions
	for _, s := range ss {
		kids, err := s.In(fqn)
		if err != nil {
			return nil, err
		}
		out = append(out, kids...)
	}
	return out, nil
}

func (ss Sessions) each(fn func(*RenderSession) error) error {
	for _, s := range ss {
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}
