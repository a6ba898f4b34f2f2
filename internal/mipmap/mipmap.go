// Package mipmap describes the layout of mipmap chains inside a pixel buffer.
//
// A chain is never stored. Every level's dimensions and byte range are
// recomputed from the base width, height and bits per pixel, so all callers
// agree on where each level lives.
package mipmap

import (
	"iter"
	"math/bits"
)

// BaseLevelOnly is passed as the skip count to visit only level 0.
const BaseLevelOnly = -1

// Level is one entry of a mipmap chain.
type Level struct {
	// Index counts yielded levels, starting at 0 after any skipped levels.
	Index  int
	Width  int
	Height int
	// Offset is the byte offset of this level from the start of the chain.
	Offset int
	// Size is the byte size of this level, including block padding.
	Size int
}

// Levels walks the chain from the base level down to 1x1. Each step halves
// both dimensions, clamping at 1, so non-square images keep going until the
// larger side is exhausted.
//
// skip levels are computed but not yielded. Pass BaseLevelOnly to stop after
// level 0. blockAlign pads each level's dimensions up to a multiple of the
// block size (4 for S3TC, 1 for plain pixels).
func Levels(w, h, bpp, skip, blockAlign int) iter.Seq[Level] {
	return func(yield func(Level) bool) {
		if w <= 0 || h <= 0 || blockAlign <= 0 {
			return
		}
		index := -skip
		if skip == BaseLevelOnly {
			index = 0
		}
		levelW, levelH := w, h
		offset := 0
		for {
			size := roundUp(levelW, blockAlign) * roundUp(levelH, blockAlign) * bpp / 8
			if index >= 0 {
				if !yield(Level{Index: index, Width: levelW, Height: levelH, Offset: offset, Size: size}) {
					return
				}
			}
			offset += size

			if levelW == 1 && levelH == 1 {
				return
			}
			levelW = max(levelW/2, 1)
			levelH = max(levelH/2, 1)
			index++

			if skip == BaseLevelOnly {
				return
			}
		}
	}
}

// Chain is Levels paired with the slice of data holding each level.
// Iteration stops early if data is too short for the next level.
func Chain(data []byte, w, h, bpp, skip, blockAlign int) iter.Seq2[Level, []byte] {
	return func(yield func(Level, []byte) bool) {
		for lvl := range Levels(w, h, bpp, skip, blockAlign) {
			end := lvl.Offset + lvl.Size
			if end > len(data) {
				return
			}
			if !yield(lvl, data[lvl.Offset:end]) {
				return
			}
		}
	}
}

// TotalSize sums the byte sizes of the levels visited with the given skip.
// With skip 0 this is the size of the whole chain.
func TotalSize(w, h, bpp, skip, blockAlign int) int {
	total := 0
	for lvl := range Levels(w, h, bpp, skip, blockAlign) {
		total += lvl.Size
	}
	return total
}

// LastOffset returns the offset of the final (1x1) level.
func LastOffset(w, h, bpp, blockAlign int) int {
	last := 0
	for lvl := range Levels(w, h, bpp, 0, blockAlign) {
		last = lvl.Offset
	}
	return last
}

// Count returns the number of levels in a full chain: floor(log2(max(w,h)))+1.
func Count(w, h int) int {
	n := max(w, h)
	if n <= 0 {
		return 0
	}
	return bits.Len(uint(n))
}

// CeilLog2 returns the smallest k with 1<<k >= n.
func CeilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// NextPowerOfTwo returns n if it is already a power of two, else the next one up.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	if IsPowerOfTwo(n) {
		return n
	}
	return 1 << bits.Len(uint(n))
}

func roundUp(n, multiple int) int {
	return (n + multiple - 1) / multiple * multiple
}
