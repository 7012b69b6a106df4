package model

import "fmt"

// TypeKind is the closed set of column type tags a field_types entry can declare.
type TypeKind int

const (
	// KindUInt8 represents an unsigned 8-bit integer column
	KindUInt8 TypeKind = iota
	// KindUInt16 represents an unsigned 16-bit integer column
	KindUInt16
	// KindUInt32 represents an unsigned 32-bit integer column
	KindUInt32
	// KindUInt64 represents an unsigned 64-bit integer column
	KindUInt64
	// KindInt8 represents a signed 8-bit integer column
	KindInt8
	// KindInt16 represents a signed 16-bit integer column
	KindInt16
	// KindInt32 represents a signed 32-bit integer column
	KindInt32
	// KindInt64 represents a signed 64-bit integer column
	KindInt64
	// KindFloat32 represents a 32-bit floating point column
	KindFloat32
	// KindFloat64 represents a 64-bit floating point column
	KindFloat64
	// KindBoolean represents a boolean column
	KindBoolean
	// KindBinary represents a raw bytes column
	KindBinary
	// KindString represents a UTF-8 text column
	KindString
	// KindNull represents a column that only holds nulls
	KindNull
	// KindDuration represents an elapsed time column counted in a TimeUnit
	KindDuration
	// KindTime represents a time of day column described by a strftime format
	KindTime
	// KindDate represents a calendar date column described by a strftime format
	KindDate
	// KindDatetime represents a timestamp column described by a strftime format
	KindDatetime
)

var kindNames = map[TypeKind]string{
	KindUInt8:    "UInt8",
	KindUInt16:   "UInt16",
	KindUInt32:   "UInt32",
	KindUInt64:   "UInt64",
	KindInt8:     "Int8",
	KindInt16:    "Int16",
	KindInt32:    "Int32",
	KindInt64:    "Int64",
	KindFloat32:  "Float32",
	KindFloat64:  "Float64",
	KindBoolean:  "Boolean",
	KindBinary:   "Binary",
	KindString:   "String",
	KindNull:     "Null",
	KindDuration: "Duration",
	KindTime:     "Time",
	KindDate:     "Date",
	KindDatetime: "Datetime",
}

// String returns the DSL keyword of the kind.
func (k TypeKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TypeKind(%d)", int(k))
}

// ScalarKind looks up a kind that takes no parameters by its DSL keyword.
func ScalarKind(keyword string) (TypeKind, bool) {
	for kind, name := range kindNames {
		if name == keyword && kind.IsScalar() {
			return kind, true
		}
	}
	return 0, false
}

// IsScalar reports whether the kind carries no parameters besides nullability.
func (k TypeKind) IsScalar() bool {
	return k >= KindUInt8 && k <= KindNull
}

// IsTemporal reports whether the kind is described by a format string.
func (k TypeKind) IsTemporal() bool {
	return k == KindTime || k == KindDate || k == KindDatetime
}

// TimeUnit is the resolution of Duration and Datetime columns.
type TimeUnit int

const (
	// Seconds is a one second resolution
	Seconds TimeUnit = iota
	// Milliseconds is a one millisecond resolution
	Milliseconds
	// Microseconds is a one microsecond resolution
	Microseconds
	// Nanoseconds is a one nanosecond resolution
	Nanoseconds
)

// String returns the DSL keyword of the unit.
func (u TimeUnit) String() string {
	switch u {
	case Seconds:
		return "Seconds"
	case Milliseconds:
		return "Milliseconds"
	case Microseconds:
		return "Microseconds"
	case Nanoseconds:
		return "Nanoseconds"
	default:
		return fmt.Sprintf("TimeUnit(%d)", int(u))
	}
}

// ParseTimeUnit converts a DSL keyword into a TimeUnit.
func ParseTimeUnit(keyword string) (TimeUnit, bool) {
	for _, u := range []TimeUnit{Seconds, Milliseconds, Microseconds, Nanoseconds} {
		if u.String() == keyword {
			return u, true
		}
	}
	return 0, false
}

// TypeDescriptor is a column type declared in a field_types block.
// Unit is meaningful for Duration and Datetime, Format for Time, Date and Datetime,
// and Timezone for Datetime only.
type TypeDescriptor struct {
	Kind     TypeKind
	Nullable bool
	Unit     TimeUnit
	Format   string
	Timezone string
}

// NewScalar creates a descriptor for a kind without parameters.
// Null descriptors are always nullable.
func NewScalar(kind TypeKind, nullable bool) TypeDescriptor {
	if kind == KindNull {
		nullable = true
	}
	return TypeDescriptor{Kind: kind, Nullable: nullable}
}

// NewDuration creates a Duration descriptor.
func NewDuration(nullable bool, unit TimeUnit) TypeDescriptor {
	return TypeDescriptor{Kind: KindDuration, Nullable: nullable, Unit: unit}
}

// NewTime creates a Time descriptor.
func NewTime(nullable bool, format string) TypeDescriptor {
	return TypeDescriptor{Kind: KindTime, Nullable: nullable, Format: format}
}

// NewDate creates a Date descriptor.
func NewDate(nullable bool, format string) TypeDescriptor {
	return TypeDescriptor{Kind: KindDate, Nullable: nullable, Format: format}
}

// NewDatetime creates a Datetime descriptor. timezone may be empty.
func NewDatetime(nullable bool, format string, unit TimeUnit, timezone string) TypeDescriptor {
	return TypeDescriptor{
		Kind:     KindDatetime,
		Nullable: nullable,
		Format:   format,
		Unit:     unit,
		Timezone: timezone,
	}
}

// IsNullable returns the nullability of the column. Null is always nullable.
func (d TypeDescriptor) IsNullable() bool {
	if d.Kind == KindNull {
		return true
	}
	return d.Nullable
}

// String renders the descriptor in DSL syntax.
func (d TypeDescriptor) String() string {
	var s string
	switch d.Kind {
	case KindDuration:
		s = fmt.Sprintf("Duration %s", d.Unit)
	case KindTime, KindDate:
		s = fmt.Sprintf("%s %q", d.Kind, d.Format)
	case KindDatetime:
		s = fmt.Sprintf("Datetime %q %s", d.Format, d.Unit)
		if d.Timezone != "" {
			s += fmt.Sprintf(" %q", d.Timezone)
		}
	default:
		s = d.Kind.String()
	}
	if d.Nullable && d.Kind != KindNull {
		s += " nullable"
	}
	return s
}
