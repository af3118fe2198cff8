package model

import "strings"

// Well-known Extras keys set by channel parsers.
const (
	ExtraPayMethod = "支付方式"
	ExtraStatus    = "状态"
	ExtraCardTail  = "卡末四位"
)

// Extras is an insertion-ordered string map of channel-specific fields.
// The zero value is ready to use.
type Extras struct {
	keys   []string
	values map[string]string
}

// Set stores v under k, keeping the original position when k already exists.
func (e *Extras) Set(k, v string) {
	if e.values == nil {
		e.values = make(map[string]string)
	}
	if _, ok := e.values[k]; !ok {
		e.keys = append(e.keys, k)
	}
	e.values[k] = v
}

// Get returns the value for k, or "".
func (e Extras) Get(k string) string {
	return e.values[k]
}

// Len returns the number of entries.
func (e Extras) Len() int {
	return len(e.keys)
}

// String renders "k: v; k: v" in insertion order.
func (e Extras) String() string {
	parts := make([]string, 0, len(e.keys))
	for _, k := range e.keys {
		parts = append(parts, k+": "+e.values[k])
	}
	return strings.Join(parts, "; ")
}
