package lease

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Reserved answer keys holding the repeated-entity lists.
const (
	LandlordsKey = "landlords"
	TenantsKey   = "tenants"
)

// Answers is the questionnaire answer set as decoded from JSON or YAML:
// scalar values plus the two entity lists under LandlordsKey and TenantsKey.
type Answers map[string]any

// Entity is one landlord or tenant entry.
type Entity struct {
	Name     string
	IDNumber string
	City     string
	Phone    string
	Email    string
}

// entityFields lists the entry fields in the order the flat keys are derived:
// "name" in the tenants list backs "tenantName", and so on.
var entityFields = []string{"name", "idNumber", "city", "phone", "email"}

func (e Entity) field(name string) string {
	switch name {
	case "name":
		return e.Name
	case "idNumber":
		return e.IDNumber
	case "city":
		return e.City
	case "phone":
		return e.Phone
	case "email":
		return e.Email
	}
	return ""
}

// flatKey returns the scalar key backed by the first list entry, e.g.
// flatKey("tenant", "idNumber") == "tenantIdNumber".
func flatKey(prefix, field string) string {
	return prefix + strings.ToUpper(field[:1]) + field[1:]
}

// Lookup resolves a key or a dotted path. Path segments step into nested
// maps by name and into lists by 1-based index ("tenants.2.name").
func (a Answers) Lookup(path string) (any, bool) {
	if v, ok := a[path]; ok {
		return v, true
	}
	parts := strings.Split(path, ".")
	if len(parts) < 2 {
		return nil, false
	}

	var cur any = map[string]any(a)
	for _, p := range parts {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[p]
			if !ok {
				return nil, false
			}
			cur = v
		case Answers:
			v, ok := node[p]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(p)
			if err != nil || i < 1 || i > len(node) {
				return nil, false
			}
			cur = node[i-1]
		default:
			return nil, false
		}
	}
	return cur, true
}

// String returns the trimmed string form of the value at path, or "" when
// the value is absent or empty.
func (a Answers) String(path string) string {
	v, ok := a.Lookup(path)
	if !ok {
		return ""
	}
	return Stringify(v)
}

// Entities returns the entries of a reserved list. When the list is absent
// or empty, a single entry is synthesised from the flat keys with the given
// prefix ("tenant", "landlord"), so callers always see at least one entry.
func (a Answers) Entities(listKey, prefix string) []Entity {
	var out []Entity
	if list, ok := a[listKey].([]any); ok {
		for _, item := range list {
			out = append(out, entityFromMap(toStringMap(item)))
		}
	}
	if len(out) > 0 {
		return out
	}

	fields := map[string]string{}
	for _, f := range entityFields {
		fields[f] = a.String(flatKey(prefix, f))
	}
	return []Entity{entityFromStrings(fields)}
}

// Tenants is shorthand for Entities(TenantsKey, "tenant").
func (a Answers) Tenants() []Entity { return a.Entities(TenantsKey, "tenant") }

// Landlords is shorthand for Entities(LandlordsKey, "landlord").
func (a Answers) Landlords() []Entity { return a.Entities(LandlordsKey, "landlord") }

// Normalize returns a copy of the answers in which the flat keys
// (landlordName, tenantName, ...) and the first entry of the matching list
// agree. Explicit flat values win and are written into that entry; empty
// flat keys are filled from it.
func (a Answers) Normalize() Answers {
	out := make(Answers, len(a)+2*len(entityFields))
	for k, v := range a {
		out[k] = v
	}
	for _, group := range []struct{ list, prefix string }{
		{LandlordsKey, "landlord"},
		{TenantsKey, "tenant"},
	} {
		if list, ok := a[group.list].([]any); ok && len(list) > 0 {
			out[group.list] = overlayFirst(list, a, group.prefix)
		}
		first := out.Entities(group.list, group.prefix)[0]
		for _, f := range entityFields {
			key := flatKey(group.prefix, f)
			if out.String(key) == "" && first.field(f) != "" {
				out[key] = first.field(f)
			}
		}
	}
	return out
}

// overlayFirst returns a copy of list whose first entry carries the
// explicit flat values of a.
func overlayFirst(list []any, a Answers, prefix string) []any {
	first := make(map[string]any, len(entityFields))
	for k, v := range toStringMap(list[0]) {
		first[k] = v
	}
	for _, f := range entityFields {
		if v := a.String(flatKey(prefix, f)); v != "" {
			first[f] = v
		}
	}

	out := make([]any, len(list))
	copy(out, list)
	out[0] = first
	return out
}

func entityFromMap(m map[string]any) Entity {
	fields := map[string]string{}
	for k, v := range m {
		fields[k] = Stringify(v)
	}
	return entityFromStrings(fields)
}

func entityFromStrings(fields map[string]string) Entity {
	return Entity{
		Name:     fields["name"],
		IDNumber: fields["idNumber"],
		City:     fields["city"],
		Phone:    fields["phone"],
		Email:    fields["email"],
	}
}

func toStringMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case Answers:
		return m
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out
	}
	return nil
}

// Stringify renders an answer value as text: numbers without exponent,
// booleans as "true"/"false", lists joined with ", ". Nil becomes "".
func Stringify(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	case bool:
		return strconv.FormatBool(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case []any:
		parts := make([]string, 0, len(value))
		for _, item := range value {
			if s := Stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case []string:
		return Stringify(toAnySlice(value))
	case map[string]any:
		keys := make([]string, 0, len(value))
		for k := range value {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := Stringify(value[k]); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// Truthy reports whether the value at key is present, non-empty and not
// false. A missing key is not truthy.
func (a Answers) Truthy(key string) bool {
	v, ok := a.Lookup(key)
	if !ok || v == nil {
		return false
	}
	switch value := v.(type) {
	case bool:
		return value
	case []any:
		return len(value) > 0
	case []string:
		return len(value) > 0
	}
	s := Stringify(v)
	return s != "" && !strings.EqualFold(s, "false")
}

// affirmative answers accepted by structural clause toggles.
var affirmative = map[string]struct{}{
	"yes":  {},
	"true": {},
	"1":    {},
	"on":   {},
	"y":    {},
}

// Affirmative reports whether the toggle at key holds a yes-like value.
// An absent toggle is not affirmative.
func (a Answers) Affirmative(key string) bool {
	v, ok := a.Lookup(key)
	if !ok {
		return false
	}
	if b, isBool := v.(bool); isBool {
		return b
	}
	_, yes := affirmative[strings.ToLower(Stringify(v))]
	return yes
}

// Count returns how many values the field at key holds: the number of
// non-empty list items, or the number of comma-separated parts of a string.
func (a Answers) Count(key string) int {
	v, ok := a.Lookup(key)
	if !ok || v == nil {
		return 0
	}
	switch value := v.(type) {
	case []any:
		n := 0
		for _, item := range value {
			if Stringify(item) != "" {
				n++
			}
		}
		return n
	case []string:
		return countNonEmpty(value)
	}
	return countNonEmpty(strings.Split(Stringify(v), ","))
}

func countNonEmpty(items []string) int {
	n := 0
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	return n
}
