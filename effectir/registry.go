package effectir

import "strconv"

// TypeTable interns Types by structural equality (two
// structurally equal types... yield the same id").
type TypeTable struct {
	types   []Type
	typeMap map[string]TypeHandle
	keyBuf  []byte // reusable buffer for building type keys
}

// NewTypeTable creates an empty type table.
func NewTypeTable() *TypeTable {
	return &TypeTable{
		types:   make([]Type, 0, 16),
		typeMap: make(map[string]TypeHandle, 16),
		keyBuf:  make([]byte, 0, 64),
	}
}

// Intern returns the handle for t, creating a new entry only if no
// structurally-equal type has been interned yet.
func (tt *TypeTable) Intern(t Type) TypeHandle {
	key := tt.key(t)
	if h, ok := tt.typeMap[key]; ok {
		return h
	}
	h := TypeHandle(len(tt.types))
	tt.types = append(tt.types, t)
	tt.typeMap[key] = h
	return h
}

// Lookup returns the Type for handle h.
func (tt *TypeTable) Lookup(h TypeHandle) (Type, bool) {
	if h < 0 || int(h) >= len(tt.types) {
		return Type{}, false
	}
	return tt.types[h], true
}

// All returns every interned type in declaration order.
func (tt *TypeTable) All() []Type { return tt.types }

// Count returns the number of distinct interned types.
func (tt *TypeTable) Count() int { return len(tt.types) }

// key builds a canonical string key for t's structural fields.
func (tt *TypeTable) key(t Type) string {
	tt.keyBuf = appendTypeKey(tt.keyBuf[:0], t)
	return string(tt.keyBuf)
}

// appendTypeKey appends a canonical encoding of t's structural fields
// (the ones Type.Equal compares) to b. Shared by TypeTable and
// ConstantTable, since a Constant is keyed by exact type equality too.
func appendTypeKey(b []byte, t Type) []byte {
	b = append(b, byte(t.Base))
	b = append(b, ':')
	b = strconv.AppendUint(b, uint64(t.Rows), 10)
	b = append(b, ':')
	b = strconv.AppendUint(b, uint64(t.Cols), 10)
	b = append(b, ':')
	b = strconv.AppendInt(b, int64(t.ArrayLen), 10)
	b = append(b, ':')
	b = strconv.AppendUint(b, uint64(t.Qualifiers), 10)
	b = append(b, ':')
	if t.Pointer {
		b = append(b, '1')
	} else {
		b = append(b, '0')
	}
	if t.IsInput {
		b = append(b, 'i')
	}
	if t.IsOutput {
		b = append(b, 'o')
	}
	if t.Base == BaseStruct {
		b = append(b, ':', 's')
		b = strconv.AppendBool(b, t.HasStruct)
		b = append(b, ':')
		b = strconv.AppendInt(b, int64(t.Struct), 10)
	}
	return b
}

// ConstantTable interns Constants by type plus exact bit pattern.
type ConstantTable struct {
	constants []Constant
	constMap  map[string]ConstantHandle
}

// NewConstantTable creates an empty constant table.
func NewConstantTable() *ConstantTable {
	return &ConstantTable{
		constants: make([]Constant, 0, 16),
		constMap:  make(map[string]ConstantHandle, 16),
	}
}

// Intern returns the handle for c, creating a new entry only if no
// constant with the same type and bit pattern (and, for arrays, the
// same elements, compared recursively) has been interned yet.
func (ct *ConstantTable) Intern(c Constant) ConstantHandle {
	key := ct.key(c)
	if h, ok := ct.constMap[key]; ok {
		return h
	}
	h := ConstantHandle(len(ct.constants))
	ct.constants = append(ct.constants, c)
	ct.constMap[key] = h
	return h
}

// Lookup returns the Constant for handle h.
func (ct *ConstantTable) Lookup(h ConstantHandle) (Constant, bool) {
	if h < 0 || int(h) >= len(ct.constants) {
		return Constant{}, false
	}
	return ct.constants[h], true
}

// All returns every interned constant in declaration order.
func (ct *ConstantTable) All() []Constant { return ct.constants }

// Count returns the number of distinct interned constants.
func (ct *ConstantTable) Count() int { return len(ct.constants) }

func (ct *ConstantTable) key(c Constant) string {
	return string(appendConstantKey(nil, c))
}

// appendConstantKey appends a canonical encoding of c (keyed by exact
// type equality, the 64-byte lane pattern, the string payload, and
// recursive element equality — spec §4.2's constant-interning rule) to
// b.
func appendConstantKey(b []byte, c Constant) []byte {
	b = appendTypeKey(b, c.Type)
	b = append(b, ':')
	for _, lane := range c.Lanes {
		b = strconv.AppendUint(b, uint64(lane), 16)
		b = append(b, ',')
	}
	if c.String != "" {
		b = append(b, ':', 's', ':')
		b = append(b, c.String...)
	}
	for _, e := range c.Elements {
		b = append(b, ':', 'e', ':')
		b = appendConstantKey(b, e)
	}
	return b
}
