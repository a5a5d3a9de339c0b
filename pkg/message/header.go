package message

// Header is a single custom header field.
type Header struct {
	Name  string
	Value string
}

// HeaderTable stores custom headers by name. Entries come back in first-insertion order;
// overwriting a name keeps its original position.
type HeaderTable struct {
	names  []string
	values map[string]string
}

// Put sets name to value.
func (h *HeaderTable) Put(name, value string) error {
	if name == "" {
		return ErrInvalidHeaderName
	}
	if value == "" {
		return ErrInvalidHeaderValue
	}
	if h.values == nil {
		h.values = make(map[string]string)
	}
	if _, ok := h.values[name]; !ok {
		h.names = append(h.names, name)
	}
	h.values[name] = value
	return nil
}

// Get returns the value stored for name.
func (h *HeaderTable) Get(name string) (string, bool) {
	v, ok := h.values[name]
	return v, ok
}

// Len returns the number of distinct header names.
func (h *HeaderTable) Len() int {
	return len(h.names)
}

// Entries returns the headers in insertion order.
func (h *HeaderTable) Entries() []Header {
	if len(h.names) == 0 {
		return nil
	}
	entries := make([]Header, len(h.names))
	for i, name := range h.names {
		entries[i] = Header{Name: name, Value: h.values[name]}
	}
	return entries
}

// Map returns a copy of the headers keyed by name.
func (h *HeaderTable) Map() map[string]string {
	m := make(map[string]string, len(h.values))
	for k, v := range h.values {
		m[k] = v
	}
	return m
}
