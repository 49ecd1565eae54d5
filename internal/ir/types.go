package ir

import "github.com/roach88/smartcoll/internal/value"

// CollectionSpec is a compiled collection definition.
type CollectionSpec struct {
	Name   string      `json:"name"`
	Schema *ItemSchema `json:"schema,omitempty"` // nil accepts any item
	Guards []Guard     `json:"guards"`
	Views  []ViewSpec  `json:"views"`
}

// Field types accepted in item schemas.
const (
	TypeString = "string"
	TypeInt    = "int"
	TypeBool   = "bool"
	TypeArray  = "array"
	TypeObject = "object"
	TypeNull   = "null"
	TypeAny    = "any"
)

// ItemSchema constrains the items a collection accepts.
//
// For Type "object", Fields lists the declared fields in declaration order
// and Closed rejects undeclared keys.
type ItemSchema struct {
	Type   string        `json:"type"`
	Fields []FieldSchema `json:"fields,omitempty"`
	Closed bool          `json:"closed,omitempty"`
}

// FieldSchema is one declared object field.
type FieldSchema struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Optional bool   `json:"optional,omitempty"`
}

// ResumePolicy decides what happens to an operation after a guard cancels it.
type ResumePolicy string

const (
	// ResumeNever abandons the operation.
	ResumeNever ResumePolicy = "never"

	// ResumeImmediate resumes the operation before the call that started
	// it returns.
	ResumeImmediate ResumePolicy = "immediate"

	// ResumeDeferred resumes the operation on a later turn of the engine.
	ResumeDeferred ResumePolicy = "deferred"
)

// Guard cancels operations whose item matches When at a before event.
type Guard struct {
	Name   string       `json:"name,omitempty"`
	Event  string       `json:"event"` // "add-before" or "remove-before"
	When   value.Value  `json:"-"`     // nil matches every item
	Resume ResumePolicy `json:"resume"`
}

// ViewSpec is a named view selecting the items that match Where.
type ViewSpec struct {
	Name  string      `json:"name"`
	Where value.Value `json:"-"` // nil selects every item
}

// Guard event names.
const (
	EventAddBefore    = "add-before"
	EventRemoveBefore = "remove-before"
)

// ValidTypes lists the schema field types, in documentation order.
var ValidTypes = []string{TypeString, TypeInt, TypeBool, TypeArray, TypeObject, TypeNull, TypeAny}

// ValidResumePolicies lists the accepted resume policies.
var ValidResumePolicies = []ResumePolicy{ResumeNever, ResumeImmediate, ResumeDeferred}
