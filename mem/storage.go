package mem

import (
	"fmt"
	"sync"
)

// A Storage keeps the bytes of a target. Units that are never touched are
// never allocated.
type Storage struct {
	sync.Mutex

	unitSize uint64
	capacity uint64
	data     map[uint64][]byte
}

// NewStorage creates a storage object with the specified capacity.
func NewStorage(capacity uint64) *Storage {
	return NewStorageWithUnitSize(capacity, 4096)
}

// NewStorageWithUnitSize creates a storage that allocates memory in units of
// the given size.
func NewStorageWithUnitSize(capacity, unitSize uint64) *Storage {
	s := new(Storage)
	s.unitSize = unitSize
	s.capacity = capacity
	s.data = make(map[uint64][]byte)

	return s
}

// Capacity returns the number of bytes the storage can hold.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

func (s *Storage) mustFit(addr, byteSize uint64) error {
	if addr > s.capacity || byteSize > s.capacity-addr {
		return fmt.Errorf(
			"accessing 0x%x bytes at 0x%x beyond the storage capacity 0x%x",
			byteSize, addr, s.capacity)
	}

	return nil
}

func (s *Storage) createOrGetUnit(addr uint64) []byte {
	baseAddr, _ := s.parseAddress(addr)

	unit, ok := s.data[baseAddr]
	if !ok {
		unit = make([]byte, s.unitSize)
		s.data[baseAddr] = unit
	}

	return unit
}

func (s *Storage) parseAddress(addr uint64) (baseAddr, inUnitAddr uint64) {
	inUnitAddr = addr % s.unitSize
	baseAddr = addr - inUnitAddr

	return
}

// Read returns a copy of byteSize bytes starting at addr.
func (s *Storage) Read(addr, byteSize uint64) ([]byte, error) {
	s.Lock()
	defer s.Unlock()

	return s.read(addr, byteSize)
}

func (s *Storage) read(addr, byteSize uint64) ([]byte, error) {
	err := s.mustFit(addr, byteSize)
	if err != nil {
		return nil, err
	}

	res := make([]byte, byteSize)
	offset := uint64(0)

	for offset < byteSize {
		currAddr := addr + offset
		unit := s.createOrGetUnit(currAddr)

		baseAddr, inUnitAddr := s.parseAddress(currAddr)
		n := min(byteSize-offset, baseAddr+s.unitSize-currAddr)

		copy(res[offset:offset+n], unit[inUnitAddr:inUnitAddr+n])
		offset += n
	}

	return res, nil
}

// Write stores data starting at addr.
func (s *Storage) Write(addr uint64, data []byte) error {
	s.Lock()
	defer s.Unlock()

	return s.write(addr, data)
}

func (s *Storage) write(addr uint64, data []byte) error {
	length := uint64(len(data))

	err := s.mustFit(addr, length)
	if err != nil {
		return err
	}

	offset := uint64(0)

	for offset < length {
		currAddr := addr + offset
		unit := s.createOrGetUnit(currAddr)

		baseAddr, inUnitAddr := s.parseAddress(currAddr)
		n := min(length-offset, baseAddr+s.unitSize-currAddr)

		copy(unit[inUnitAddr:inUnitAddr+n], data[offset:offset+n])
		offset += n
	}

	return nil
}

// ApplyWrite stores the dirty bytes of a write request at addr.
func (s *Storage) ApplyWrite(addr uint64, req *WriteReq) error {
	s.Lock()
	defer s.Unlock()

	if req.DirtyMask == nil {
		return s.write(addr, req.Data)
	}

	data, err := s.read(addr, uint64(len(req.Data)))
	if err != nil {
		return err
	}

	for i := range req.Data {
		if req.IsByteDirty(i) {
			data[i] = req.Data[i]
		}
	}

	return s.write(addr, data)
}
