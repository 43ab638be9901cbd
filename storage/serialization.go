// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/tmbridge/core"
)

// reader decodes a sequence of MUS fields, remembering the first error.
type reader struct {
	data []byte
	n    int
	err  error
}

func (r *reader) str() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.data[r.n:])
	r.fail(err)
	r.n += n
	return v
}

func (r *reader) int() int {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(r.data[r.n:])
	r.fail(err)
	r.n += n
	return v
}

func (r *reader) int64() int64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(r.data[r.n:])
	r.fail(err)
	r.n += n
	return v
}

func (r *reader) float32() float32 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Float32.Unmarshal(r.data[r.n:])
	r.fail(err)
	r.n += n
	return v
}

func (r *reader) fail(err error) {
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
}

func (r *reader) done() error {
	if r.err != nil {
		return r.err
	}
	if r.n != len(r.data) {
		return fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(r.data)-r.n)
	}
	return nil
}

func timeMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func fromMicros(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}

// MarshalEntry serializes an Entry to bytes.
func MarshalEntry(e *core.Entry) []byte {
	fields := []string{e.Code, e.Term, e.English, e.Definition, e.ParentCode}
	size := 0
	for _, f := range fields {
		size += ord.String.Size(f)
	}
	buf := make([]byte, size)
	n := 0
	for _, f := range fields {
		n += ord.String.Marshal(f, buf[n:])
	}
	return buf
}

// UnmarshalEntry deserializes an Entry from bytes.
func UnmarshalEntry(data []byte) (*core.Entry, error) {
	if len(data) == 0 {
		return nil, ErrTruncatedData
	}
	r := &reader{data: data}
	e := &core.Entry{
		Code:       r.str(),
		Term:       r.str(),
		English:    r.str(),
		Definition: r.str(),
		ParentCode: r.str(),
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return e, nil
}

// MarshalVector serializes an embedding to bytes.
func MarshalVector(v []float32) []byte {
	size := varint.Int.Size(len(v))
	for _, f := range v {
		size += varint.Float32.Size(f)
	}
	buf := make([]byte, size)
	n := varint.Int.Marshal(len(v), buf)
	for _, f := range v {
		n += varint.Float32.Marshal(f, buf[n:])
	}
	return buf
}

// UnmarshalVector deserializes an embedding from bytes.
func UnmarshalVector(data []byte) ([]float32, error) {
	if len(data) == 0 {
		return nil, ErrTruncatedData
	}
	r := &reader{data: data}
	length := r.int()
	if r.err == nil && (length < 0 || length > len(data)) {
		return nil, fmt.Errorf("%w: invalid vector length %d", ErrSerializationFailed, length)
	}
	v := make([]float32, length)
	for i := range v {
		v[i] = r.float32()
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return v, nil
}

// MarshalBundleInfo serializes BundleInfo to bytes.
func MarshalBundleInfo(info *core.BundleInfo) []byte {
	built := timeMicros(info.BuiltAt)
	size := ord.String.Size(string(info.Terminology)) +
		ord.String.Size(info.Digest) +
		ord.String.Size(info.EmbeddingModel) +
		varint.Int.Size(info.Dimension) +
		varint.Int.Size(info.Entries) +
		varint.Int64.Size(built)
	buf := make([]byte, size)
	n := ord.String.Marshal(string(info.Terminology), buf)
	n += ord.String.Marshal(info.Digest, buf[n:])
	n += ord.String.Marshal(info.EmbeddingModel, buf[n:])
	n += varint.Int.Marshal(info.Dimension, buf[n:])
	n += varint.Int.Marshal(info.Entries, buf[n:])
	varint.Int64.Marshal(built, buf[n:])
	return buf
}

// UnmarshalBundleInfo deserializes BundleInfo from bytes.
func UnmarshalBundleInfo(data []byte) (*core.BundleInfo, error) {
	if len(data) == 0 {
		return nil, ErrTruncatedData
	}
	r := &reader{data: data}
	info := &core.BundleInfo{
		Terminology:    core.Terminology(r.str()),
		Digest:         r.str(),
		EmbeddingModel: r.str(),
		Dimension:      r.int(),
		Entries:        r.int(),
		BuiltAt:        fromMicros(r.int64()),
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return info, nil
}

// MarshalSelection serializes a Selection to bytes.
func MarshalSelection(s *core.Selection) []byte {
	at := timeMicros(s.SelectedAt)
	size := ord.String.Size(string(s.System)) +
		ord.String.Size(string(s.Target)) +
		ord.String.Size(s.Code) +
		ord.String.Size(s.Query) +
		varint.Int64.Size(at)
	buf := make([]byte, size)
	n := ord.String.Marshal(string(s.System), buf)
	n += ord.String.Marshal(string(s.Target), buf[n:])
	n += ord.String.Marshal(s.Code, buf[n:])
	n += ord.String.Marshal(s.Query, buf[n:])
	varint.Int64.Marshal(at, buf[n:])
	return buf
}

// UnmarshalSelection deserializes a Selection from bytes.
func UnmarshalSelection(data []byte) (*core.Selection, error) {
	if len(data) == 0 {
		return nil, ErrTruncatedData
	}
	r := &reader{data: data}
	s := &core.Selection{
		System:     core.Terminology(r.str()),
		Target:     core.Terminology(r.str()),
		Code:       r.str(),
		Query:      r.str(),
		SelectedAt: fromMicros(r.int64()),
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return s, nil
}

// MarshalCount serializes a counter value.
func MarshalCount(n int) []byte {
	buf := make([]byte, varint.Int.Size(n))
	varint.Int.Marshal(n, buf)
	return buf
}

// UnmarshalCount deserializes a counter value.
func UnmarshalCount(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, ErrTruncatedData
	}
	r := &reader{data: data}
	n := r.int()
	if err := r.done(); err != nil {
		return 0, err
	}
	return n, nil
}
