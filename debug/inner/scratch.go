package inner

import (
	"encoding/binary"
	"log"

	"github.com/sarchlab/dmsim/mem"
)

// AccessObserver is notified of every control-bus access to a scratch word.
// A write only lands if the observer returns true.
type AccessObserver func(word int, write bool) bool

// Scratch is a small memory that both the control bus and the harts can
// access. Only control-bus accesses are observed.
type Scratch struct {
	words    int
	storage  *mem.Storage
	observer AccessObserver
}

// NewScratch creates a scratch memory with n 32-bit words.
func NewScratch(n int) *Scratch {
	s := &Scratch{words: n}
	s.Reset()

	return s
}

// SetObserver attaches the access observer.
func (s *Scratch) SetObserver(o AccessObserver) {
	s.observer = o
}

// Words returns the number of words in the memory.
func (s *Scratch) Words() int {
	return s.words
}

// Bytes returns the size of the memory in bytes.
func (s *Scratch) Bytes() uint64 {
	return uint64(s.words) * 4
}

// Reset fills the memory with zeros.
func (s *Scratch) Reset() {
	s.storage = mem.NewStorageWithUnitSize(s.Bytes(), 64)
}

// ReadWord is a control-bus read of a word.
func (s *Scratch) ReadWord(i int) uint32 {
	if s.observer != nil {
		s.observer(i, false)
	}

	return s.peekWord(i)
}

// WriteWord is a control-bus write of a word.
func (s *Scratch) WriteWord(i int, v uint32) {
	if s.observer != nil && !s.observer(i, true) {
		return
	}

	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, v)
	s.mustWrite(uint64(i)*4, data)
}

func (s *Scratch) peekWord(i int) uint32 {
	data, err := s.storage.Read(uint64(i)*4, 4)
	if err != nil {
		log.Panic(err)
	}

	return binary.LittleEndian.Uint32(data)
}

// Load is a hart read. It is not observed.
func (s *Scratch) Load(offset, n uint64) []byte {
	data, err := s.storage.Read(offset, n)
	if err != nil {
		log.Panic(err)
	}

	return data
}

// Store is a hart write. It is not observed.
func (s *Scratch) Store(offset uint64, req *mem.WriteReq) {
	err := s.storage.ApplyWrite(offset, req)
	if err != nil {
		log.Panic(err)
	}
}

func (s *Scratch) mustWrite(offset uint64, data []byte) {
	err := s.storage.Write(offset, data)
	if err != nil {
		log.Panic(err)
	}
}

// Contains tells if a hart access of n bytes at offset fits in the memory.
func (s *Scratch) Contains(offset, n uint64) bool {
	return offset+n <= s.Bytes()
}
