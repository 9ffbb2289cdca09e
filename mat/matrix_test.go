// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mat

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestTransposeTwiceIsIdentity(t *testing.T) {
	chk.PrintTitle("TransposeTwiceIsIdentity")
	m := NewVector(1, 2, 3)
	m2, _ := m.CombineAsRow(NewVector(4, 5, 6))
	tt := m2.Transpose().Transpose()
	if !tt.Equal(m2) {
		t.Fatalf("m.transpose().transpose() != m")
	}
}

func TestMulIdentity(t *testing.T) {
	chk.PrintTitle("MulIdentity")
	m := New(2, 3)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, float64(i*3+j+1))
		}
	}
	id := Identity(3)
	out, err := m.Mul(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Equal(m) {
		t.Fatalf("m * I != m")
	}
}

func TestCombineAsRowThenSubmatrixRoundTrips(t *testing.T) {
	chk.PrintTitle("CombineAsRowThenSubmatrix")
	m := New(2, 2)
	m.Set(0, 0, 1)
	m.Set(0, 1, 2)
	m.Set(1, 0, 3)
	m.Set(1, 1, 4)
	n := New(2, 2)
	n.Set(0, 0, 5)
	n.Set(0, 1, 6)
	n.Set(1, 0, 7)
	n.Set(1, 1, 8)
	combined, err := m.CombineAsRow(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back, err := combined.Submatrix(0, 2, 1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !back.Equal(n) {
		t.Fatalf("submatrix of combined row did not recover n")
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	chk.PrintTitle("SerializationRoundTrip")
	m := New(3, 2)
	m.SetRandom(-5, 5)
	text := m.String()
	back, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !back.Equal(m) {
		t.Fatalf("round-trip through String/Parse did not preserve values")
	}
}

func TestConcurrentMulMatchesSerial(t *testing.T) {
	chk.PrintTitle("ConcurrentMulMatchesSerial")
	a := New(8, 8)
	b := New(8, 8)
	a.SetRandom(-1, 1)
	b.SetRandom(-1, 1)
	serial, err := a.Mul(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a.ChunkSize = 4
	concurrent, err := a.Mul(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !serial.Equal(concurrent) {
		t.Fatalf("concurrent Mul diverged from serial Mul")
	}
}

func TestDotCrossNormalize(t *testing.T) {
	chk.PrintTitle("DotCrossNormalize")
	a := NewVector(1, 0, 0)
	b := NewVector(0, 1, 0)
	d, err := a.Dot(b)
	if err != nil || d != 0 {
		t.Fatalf("expected orthogonal dot product 0, got %v (err=%v)", d, err)
	}
	cr, err := a.Cross(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cr.Get(2, 0) != 1 {
		t.Fatalf("expected cross product (0,0,1), got row2=%v", cr.Get(2, 0))
	}
	n, err := NewVector(3, 4, 0).Normalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mag, _ := n.Magnitude()
	if diff := mag - 1; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("expected unit magnitude, got %v", mag)
	}
}

func TestInverse3x3(t *testing.T) {
	chk.PrintTitle("Inverse3x3")
	m := Identity(3)
	m.Set(0, 2, 3)
	inv, err := m.Inverse3x3()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prod, err := m.Mul(inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id := Identity(3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if diff := prod.Get(i, j) - id.Get(i, j); diff > 1e-9 || diff < -1e-9 {
				t.Fatalf("m * inverse(m) != I at (%d,%d): %v", i, j, prod.Get(i, j))
			}
		}
	}
}

func TestSingular3x3ReturnsError(t *testing.T) {
	chk.PrintTitle("Singular3x3")
	m := New(3, 3)
	_, err := m.Inverse3x3()
	if err == nil {
		t.Fatalf("expected Singular error for zero matrix")
	}
}
