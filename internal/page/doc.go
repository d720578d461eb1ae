// Package page implements the fixed-size slab page used by every arena ring.
//
// A page is one 4096-byte OS mapping laid out as:
//
//	+--------+----------------+-----+---------------------------------+
//	| header | bitmap         | pad | slots (SlotCount x SlotSize)    |
//	+--------+----------------+-----+---------------------------------+
//	0        HeaderSize             SlotOffset                        Size
//
// The header records the slot size, the owning arena and class, and the next
// page of the ring. Because every page starts on a Size boundary, the page
// owning any slot is recovered by masking the slot address; no side index is
// kept.
//
// Large blocks reuse the header on their first page with arena NoArena and
// size set to the total mapped byte count.
//
// Page methods perform no locking. Callers serialize mutation through the
// owning arena's mutex.
package page
