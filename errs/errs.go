// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errs implements the typed-error taxonomy used throughout the
// constraint solver. It wraps gosl/chk's formatted-error idiom with a
// fixed set of kinds so that callers can recover from specific failures
// (e.g. a failed line search) instead of parsing error strings.
package errs

import "github.com/cpmech/gosl/chk"

// Kind identifies one of the solver's failure classes.
type Kind int

// Error kinds. Do not reorder; Kind values may be persisted by callers.
const (
	ShapeMismatch Kind = iota
	EmptyMatrix
	OutOfBounds
	NotSquare
	Not3x3
	Singular
	NotAVector
	DivideByZero
	BadArity
	UnknownFunction
	MissingDOFInMap
	CycleInDependentDOFs
	ReplaceTargetMissing
	LineSearchNoAcceptable
	MeritEvaluationsExhausted
	StoreError
	DuplicateID
)

var kindNames = [...]string{
	"ShapeMismatch",
	"EmptyMatrix",
	"OutOfBounds",
	"NotSquare",
	"Not3x3",
	"Singular",
	"NotAVector",
	"DivideByZero",
	"BadArity",
	"UnknownFunction",
	"MissingDOFInMap",
	"CycleInDependentDOFs",
	"ReplaceTargetMissing",
	"LineSearchNoAcceptable",
	"MeritEvaluationsExhausted",
	"StoreError",
	"DuplicateID",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// Err is the error type returned by every fallible operation in this module.
type Err struct {
	Kind Kind
	Msg  string
}

// New builds an *Err with a gosl/chk-formatted message.
func New(k Kind, format string, a ...interface{}) *Err {
	return &Err{Kind: k, Msg: chk.Err(format, a...).Error()}
}

// Error implements the error interface.
func (e *Err) Error() string {
	return e.Kind.String() + ": " + e.Msg
}

// Is reports whether err is an *Err of kind k.
func Is(err error, k Kind) bool {
	e, ok := err.(*Err)
	if !ok {
		return false
	}
	return e.Kind == k
}

// Panic mirrors chk.Panic for programming-bug conditions that must never
// be recovered from by ordinary control flow (in this module: a
// non-positive matrix shape or an out-of-bounds matrix index in mat).
// Id collisions and bad factory calls return typed errors instead.
func Panic(format string, a ...interface{}) {
	chk.Panic(format, a...)
}
