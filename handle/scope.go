package handle

// Scope releases every Handle it tracks when closed, so early returns and
// error paths release each owned reference exactly once. Handles that were
// moved out with Take or released earlier are skipped.
//
//	s := handle.NewScope()
//	defer s.Close()
//	obj := s.Own(handle.String(core, "x"))
type Scope struct {
	owned []*Handle
}

// NewScope returns an empty Scope.
func NewScope() *Scope {
	return &Scope{}
}

// Own tracks h and returns it.
func (s *Scope) Own(h *Handle) *Handle {
	if h != nil {
		s.owned = append(s.owned, h)
	}
	return h
}

// Close releases tracked Handles in reverse order.
func (s *Scope) Close() {
	for i := len(s.owned) - 1; i >= 0; i-- {
		s.owned[i].Release()
	}
	s.owned = nil
}
