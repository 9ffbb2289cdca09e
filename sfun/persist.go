// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sfun

// RefRecord and FuncRecord are the wire shape of a Function's
// reconstruction recipe: its factory name plus its local DOFRefs,
// recursing into any Subordinate chain. Name()+Refs() fully determine
// the result of Create, so this one pair of types persists and restores
// any Function uniformly, with no per-kind reconstruction table (§6).
type RefRecord struct {
	ID          uint64
	Subordinate *FuncRecord
}

type FuncRecord struct {
	Name string
	Refs []RefRecord
}

// EncodeFunc captures f's reconstruction recipe.
func EncodeFunc(f *Function) FuncRecord {
	refs := f.Refs()
	out := make([]RefRecord, len(refs))
	for i, r := range refs {
		rr := RefRecord{ID: r.ID}
		if r.Subordinate != nil {
			sub := EncodeFunc(r.Subordinate)
			rr.Subordinate = &sub
		}
		out[i] = rr
	}
	return FuncRecord{Name: f.Name(), Refs: out}
}

// DecodeFunc reconstructs a Function from a FuncRecord produced by EncodeFunc.
func DecodeFunc(rec FuncRecord) (*Function, error) {
	refs := make([]DOFRef, len(rec.Refs))
	for i, rr := range rec.Refs {
		ref := DOFRef{ID: rr.ID}
		if rr.Subordinate != nil {
			sub, err := DecodeFunc(*rr.Subordinate)
			if err != nil {
				return nil, err
			}
			ref.Subordinate = sub
		}
		refs[i] = ref
	}
	return Create(rec.Name, refs)
}
