package unity

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the variant of a property Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindVector
	KindColor
	KindReference
	KindList
	KindRecord
)

// Value is the closed set of property value shapes a Unity document can carry.
// Values are produced once by the loader's decode pass; diff, merge and the
// writer all reason over the same variant.
type Value interface {
	Kind() Kind
	String() string
}

type Null struct{}

func (Null) Kind() Kind     { return KindNull }
func (Null) String() string { return "null" }

type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

type Int int64

func (Int) Kind() Kind       { return KindInt }
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

type Float float64

func (Float) Kind() Kind       { return KindFloat }
func (f Float) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }

type String string

func (String) Kind() Kind       { return KindString }
func (s String) String() string { return string(s) }

// Vector is an {x,y[,z[,w]]} record. Dims is 2, 3 or 4.
type Vector struct {
	X, Y, Z, W float64
	Dims       int
}

func (Vector) Kind() Kind { return KindVector }

func (v Vector) String() string {
	switch v.Dims {
	case 2:
		return fmt.Sprintf("{x: %s, y: %s}", formatFloat(v.X), formatFloat(v.Y))
	case 4:
		return fmt.Sprintf("{x: %s, y: %s, z: %s, w: %s}", formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z), formatFloat(v.W))
	default:
		return fmt.Sprintf("{x: %s, y: %s, z: %s}", formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z))
	}
}

// Color is an {r,g,b,a} record.
type Color struct {
	R, G, B, A float64
}

func (Color) Kind() Kind { return KindColor }

func (c Color) String() string {
	return fmt.Sprintf("{r: %s, g: %s, b: %s, a: %s}", formatFloat(c.R), formatFloat(c.G), formatFloat(c.B), formatFloat(c.A))
}

// Reference is an edge to another object, within this document (FileID) or in
// another asset (GUID). FileID "0" is the null reference.
type Reference struct {
	FileID string
	GUID   string
	Type   int64
}

func (Reference) Kind() Kind { return KindReference }

func (r Reference) String() string {
	if r.GUID != "" {
		return fmt.Sprintf("{fileID: %s, guid: %s}", r.FileID, r.GUID)
	}
	return fmt.Sprintf("{fileID: %s}", r.FileID)
}

// IsNull reports whether this is the canonical null reference.
func (r Reference) IsNull() bool { return r.FileID == "0" || r.FileID == "" }

type List []Value

func (List) Kind() Kind { return KindList }

func (l List) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Field is one named entry of a Record. Order is preserved from the source so
// re-serialization stays deterministic.
type Field struct {
	Name  string
	Value Value
}

type Record []Field

func (Record) Kind() Kind { return KindRecord }

func (r Record) String() string {
	parts := make([]string, len(r))
	for i, f := range r {
		parts[i] = f.Name + ": " + f.Value.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Get returns the value for a field name, or nil if absent.
func (r Record) Get(name string) Value {
	for _, f := range r {
		if f.Name == name {
			return f.Value
		}
	}
	return nil
}

// Equal reports structural equality of two values. A nil value only equals
// another nil value. Floats compare exactly, no epsilon: identical
// re-serializations must be byte-identical, which makes precision-noisy
// authoring a visible diff rather than a hidden one. Ints and integral floats
// compare equal because the format does not distinguish 1 from 1.0.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if ai, ok := a.(Int); ok {
		if bi, ok := b.(Int); ok {
			return ai == bi
		}
	}
	if na, aNum := asNumber(a); aNum {
		nb, bNum := asNumber(b)
		return bNum && na == nb
	}

	if a.Kind() != b.Kind() {
		return false
	}

	switch av := a.(type) {
	case Null:
		return true
	case Bool:
		return av == b.(Bool)
	case String:
		return av == b.(String)
	case Vector:
		bv := b.(Vector)
		return av.Dims == bv.Dims && av.X == bv.X && av.Y == bv.Y && av.Z == bv.Z && av.W == bv.W
	case Color:
		return av == b.(Color)
	case Reference:
		bv := b.(Reference)
		return av.FileID == bv.FileID && av.GUID == bv.GUID
	case List:
		bv := b.(List)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Record:
		bv := b.(Record)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i].Name != bv[i].Name || !Equal(av[i].Value, bv[i].Value) {
				return false
			}
		}
		return true
	}

	return false
}

func asNumber(v Value) (float64, bool) {
	switch n := v.(type) {
	case Int:
		return float64(n), true
	case Float:
		return float64(n), true
	}
	return 0, false
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
