// Package slotrand hands out unique slot numbers to a bounded-concurrency
// caller such as Window: when maxConcurrency in-flight tasks each need a
// bookkeeping identifier in [0, maxConcurrency), SlotPicker gives them one
// at random, drawn from whichever identifiers aren't already checked out,
// rather than always handing back the lowest-numbered one that was last
// freed. A light version of github.com/asmsh/uniquerand specialized to
// this one caller.
package slotrand

import (
	"math/rand"
)

// defRandSrc is the random generator used by default.
// it's a function takes an integer, r, and returns a random number in range [0, r).
var defRandSrc = rand.Intn

// defRange is the default number of slots for the zero value of a SlotPicker.
const defRange = 10

const blockSize = 32

type blockType = uint32

// SlotPicker hands out unique slot numbers within [0, n), tracking which
// ones are currently checked out so the same slot is never handed to two
// in-flight tasks at once. The zero value picks from [0, 10) using
// math/rand; call Reset to size it to an actual maxConcurrency.
type SlotPicker struct {
	r  int         // range: number of slots
	m  blockType   // block num 0
	em []blockType // block num 1+
}

// Reset sizes the picker to n slots, discarding any slots currently
// checked out. n <= 0 falls back to the default of 10 slots.
func (sp *SlotPicker) Reset(n int) {
	if n <= 0 {
		n = defRange
	}

	sp.r = n
	sp.m = 0
	sp.em = nil

	// check if we need the extra memory
	l := n / blockSize
	if int(n%blockSize) == 0 {
		l = l - 1
	}
	if l != 0 {
		sp.em = make([]blockType, l)
	}
}

// Range returns the current number of slots.
func (sp *SlotPicker) Range() int {
	if sp.r > 0 {
		return sp.r
	}
	return defRange
}

func (sp *SlotPicker) has(n int) (bn int, mb, tm, mm blockType) {
	// get the Block Number
	bn = n / blockSize

	// get the respective Memory Block
	mb = sp.m
	if bn > 0 {
		mb = sp.em[bn-1]
	}

	sv := n % blockSize     // Shift Value
	tm = blockType(1 << sv) // Target Mask
	mm = mb & tm            // Masked Memory
	return
}

// Get checks out a slot at random and reports ok as true. ok is false if
// every slot in the range is already checked out.
func (sp *SlotPicker) Get() (slot int, ok bool) {
	grn := defRandSrc(sp.Range()) // Generated slot number

	// Block Number, Memory Block, Target Mask, Masked Memory
	bn, mb, tm, mm := sp.has(grn)

	// the generated slot isn't checked out yet
	if mm == 0 {
		// update the respective Memory Block
		if bn > 0 {
			sp.em[bn-1] = mb | tm
		} else {
			sp.m = mb | tm
		}
		slot = grn
		return slot, true
	}

	// the generated slot is already checked out; fall back to a scan
	return sp.getSlow()
}

func (sp *SlotPicker) getSlow() (slot int, ok bool) {
	// loop over the default memory to find the first block that has a zero bit
	for j := 0; j < blockSize; j++ {
		tm := blockType(1 << j) // current block's Target Mask
		mm := sp.m & tm         // current block's Masked Memory
		if mm != 0 {
			continue // the current bit is not zero
		}
		sp.m = sp.m | tm // update the respective Memory Block
		slot = j
		if slot < sp.Range() {
			return slot, true
		}
		return 0, false
	}

	// loop over the extra memory to find the first block that has a zero bit
	for i, m := range sp.em {
		// if this block is all 0s, simply set it to 1 and return
		if m == 0 {
			sp.em[i] = 1    // update the respective Memory Block
			slot = i * blockSize
			slot += blockSize
			return slot, true
		}

		// otherwise, search for the first 0 in this block
		for j := 0; j < blockSize; j++ {
			tm := blockType(1 << j) // current block's Target Mask
			mm := m & tm            // current block's Masked Memory
			if mm != 0 {
				continue // the current bit is not zero
			}
			sp.em[i] = m | tm // update the respective Memory Block
			slot = i*blockSize + j
			slot += blockSize
			if slot < sp.Range() {
				return slot, true
			}
			return 0, false
		}
	}

	return 0, false
}

// Put checks a slot back in, making it eligible to be returned by Get
// again. It reports false if the slot is out of range or was never
// checked out (Window never does either, but the check is cheap).
func (sp *SlotPicker) Put(slot int) (ok bool) {
	if slot < 0 || slot >= sp.Range() {
		return false
	}

	// Block Number, Memory Block, Target Mask, Masked Memory
	bn, mb, tm, mm := sp.has(slot)

	// slot is already checked in
	if mm == 0 {
		return false
	}

	// update the respective Memory Block
	if bn > 0 {
		sp.em[bn-1] = mb &^ tm
	} else {
		sp.m = mb &^ tm
	}

	return true
}
