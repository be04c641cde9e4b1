package lzstring

import (
	"errors"
	"strings"
	"unicode/utf16"
)

// ErrCorrupt is returned when a token is not a valid compressed stream.
var ErrCorrupt = errors.New("lzstring: corrupt input")

const uriAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+-$"

var uriReverse = func() map[byte]int {
	m := make(map[byte]int, len(uriAlphabet))
	for i := range len(uriAlphabet) {
		m[uriAlphabet[i]] = i
	}
	return m
}()

// CompressToEncodedURIComponent compresses s into a URI-safe token.
func CompressToEncodedURIComponent(s string) string {
	return compress(utf16.Encode([]rune(s)), 6, func(v int) byte { return uriAlphabet[v] })
}

// DecompressFromEncodedURIComponent reverses [CompressToEncodedURIComponent].
// Spaces are read as '+', matching how form decoding mangles the alphabet.
func DecompressFromEncodedURIComponent(token string) (string, error) {
	if token == "" {
		return "", ErrCorrupt
	}
	token = strings.ReplaceAll(token, " ", "+")
	values := make([]int, len(token))
	for i := range len(token) {
		v, ok := uriReverse[token[i]]
		if !ok {
			return "", ErrCorrupt
		}
		values[i] = v
	}
	units, err := decompress(values, 32)
	if err != nil {
		return "", err
	}
	return string(utf16.Decode(units)), nil
}

// key turns a code-unit sequence into a map key.
func key(units []uint16) string {
	b := make([]byte, 2*len(units))
	for i, u := range units {
		b[2*i] = byte(u >> 8)
		b[2*i+1] = byte(u)
	}
	return string(b)
}

type bitWriter struct {
	bitsPerChar int
	toChar      func(int) byte
	out         []byte
	val         int
	pos         int
}

func (w *bitWriter) push(bit int) {
	w.val = w.val<<1 | bit
	if w.pos == w.bitsPerChar-1 {
		w.pos = 0
		w.out = append(w.out, w.toChar(w.val))
		w.val = 0
	} else {
		w.pos++
	}
}

// write emits the low n bits of v, least significant first.
func (w *bitWriter) write(v, n int) {
	for range n {
		w.push(v & 1)
		v >>= 1
	}
}

func (w *bitWriter) flush() string {
	for {
		w.val <<= 1
		if w.pos == w.bitsPerChar-1 {
			w.out = append(w.out, w.toChar(w.val))
			return string(w.out)
		}
		w.pos++
	}
}

func compress(in []uint16, bitsPerChar int, toChar func(int) byte) string {
	dict := make(map[string]int)
	toCreate := make(map[string]bool)
	enlargeIn, dictSize, numBits := 2, 3, 2
	out := &bitWriter{bitsPerChar: bitsPerChar, toChar: toChar}
	var w []uint16

	tick := func() {
		enlargeIn--
		if enlargeIn == 0 {
			enlargeIn = 1 << numBits
			numBits++
		}
	}

	emitW := func() {
		kw := key(w)
		if toCreate[kw] {
			if w[0] < 256 {
				out.write(0, numBits)
				out.write(int(w[0]), 8)
			} else {
				out.write(1, numBits)
				out.write(int(w[0]), 16)
			}
			tick()
			delete(toCreate, kw)
		} else {
			out.write(dict[kw], numBits)
		}
		tick()
	}

	for _, c := range in {
		kc := key([]uint16{c})
		if _, ok := dict[kc]; !ok {
			dict[kc] = dictSize
			dictSize++
			toCreate[kc] = true
		}

		wc := append(append(make([]uint16, 0, len(w)+1), w...), c)
		if _, ok := dict[key(wc)]; ok {
			w = wc
			continue
		}
		emitW()
		dict[key(wc)] = dictSize
		dictSize++
		w = []uint16{c}
	}

	if len(w) > 0 {
		emitW()
	}

	out.write(2, numBits)
	return out.flush()
}

type bitReader struct {
	values []int
	reset  int
	val    int
	pos    int
	index  int
}

func (r *bitReader) next(i int) int {
	if i < len(r.values) {
		return r.values[i]
	}
	return 0
}

// read consumes n bits, least significant first.
func (r *bitReader) read(n int) int {
	bits := 0
	for power := 1; power != 1<<n; power <<= 1 {
		resb := r.val & r.pos
		r.pos >>= 1
		if r.pos == 0 {
			r.pos = r.reset
			r.val = r.next(r.index)
			r.index++
		}
		if resb > 0 {
			bits |= power
		}
	}
	return bits
}

func decompress(values []int, reset int) ([]uint16, error) {
	r := &bitReader{values: values, reset: reset, pos: reset, index: 1}
	r.val = r.next(0)

	dict := [][]uint16{nil, nil, nil}
	enlargeIn := 4
	numBits := 3

	var c []uint16
	switch r.read(2) {
	case 0:
		c = []uint16{uint16(r.read(8))}
	case 1:
		c = []uint16{uint16(r.read(16))}
	case 2:
		return []uint16{}, nil
	default:
		return nil, ErrCorrupt
	}
	dict = append(dict, c)
	w := c
	result := append([]uint16(nil), c...)

	for {
		if r.index > len(values) {
			return nil, ErrCorrupt
		}

		code := r.read(numBits)
		switch code {
		case 0, 1:
			width := 8
			if code == 1 {
				width = 16
			}
			dict = append(dict, []uint16{uint16(r.read(width))})
			code = len(dict) - 1
			enlargeIn--
		case 2:
			return result, nil
		}

		if enlargeIn == 0 {
			enlargeIn = 1 << numBits
			numBits++
		}

		var entry []uint16
		switch {
		case code >= 3 && code < len(dict):
			entry = dict[code]
		case code == len(dict):
			entry = append(append([]uint16(nil), w...), w[0])
		default:
			return nil, ErrCorrupt
		}
		result = append(result, entry...)

		dict = append(dict, append(append([]uint16(nil), w...), entry[0]))
		enlargeIn--
		w = entry

		if enlargeIn == 0 {
			enlargeIn = 1 << numBits
			numBits++
		}
	}
}
