package codec

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/domain"
)

// Object is a decoded JSON object with default-aware field access.
// Lookups run against a re-encoded copy of the object, so duplicate keys
// have already been collapsed to their last value.
type Object struct {
	source string
	raw    string
	result gjson.Result
}

func newObject(source, payload string, canonical []byte) Object {
	return Object{source: source, raw: payload, result: gjson.ParseBytes(canonical)}
}

// Raw returns the JSON text the object was decoded from.
func (o Object) Raw() string {
	return o.raw
}

// Has reports whether key is present with a non-null value.
func (o Object) Has(key string) bool {
	v := o.field(key)
	return v.Exists() && v.Type != gjson.Null
}

// String returns the value at key, or def when the key is missing or null.
// Non-string scalars are rendered in their JSON text form.
func (o Object) String(key, def string) string {
	if !o.Has(key) {
		return def
	}
	return o.field(key).String()
}

// Strings returns the list at key, or def when the key is missing or null.
// Anything other than a list of strings is a malformed response.
func (o Object) Strings(key string, def []string) ([]string, error) {
	if !o.Has(key) {
		return def, nil
	}
	v := o.field(key)
	if !v.IsArray() {
		return nil, o.malformed(fmt.Errorf("field %q is not a list", key))
	}
	items := v.Array()
	out := make([]string, 0, len(items))
	for i, item := range items {
		if item.Type != gjson.String {
			return nil, o.malformed(fmt.Errorf("field %q item %d is not a string", key, i))
		}
		out = append(out, item.Str)
	}
	return out, nil
}

func (o Object) malformed(err error) error {
	return &domain.MalformedResponseError{Raw: o.source, Err: err}
}

// field looks up a top-level key literally; gjson path syntax is escaped so
// keys containing dots or wildcards are not interpreted.
func (o Object) field(key string) gjson.Result {
	return o.result.Get(gjson.Escape(key))
}
